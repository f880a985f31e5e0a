package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracevec/tracevec/pkg/vectorize"
)

// infoCommand creates the info command describing the engine.
func (c *CLI) infoCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show engine capabilities and defaults",
		Long: `Show engine capabilities and defaults.

Prints the supported image formats, preprocessing modes, pipeline stages,
and the default option values. Use --json for machine-readable output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := vectorize.EngineInfo()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Println(StyleTitle.Render(info.Name) + " " + StyleDim.Render(info.Version))
			printDetail("%s", info.Description)
			fmt.Println()

			printKeyValue("formats", strings.Join(info.Formats, ", "))
			printKeyValue("modes", strings.Join(info.Modes, ", "))
			printKeyValue("threshold", fmt.Sprintf("%d", info.Defaults.Threshold))
			printKeyValue("epsilon", fmt.Sprintf("%g", info.Defaults.Epsilon))
			printKeyValue("min length", fmt.Sprintf("%d", info.Defaults.MinLength))
			printKeyValue("min area", fmt.Sprintf("%d", info.Defaults.MinArea))
			printKeyValue("layer", info.Defaults.Layer)
			fmt.Println()

			fmt.Println(StyleDim.Render("pipeline"))
			for i, stage := range info.Pipeline {
				printDetail("%d. %s", i+1, stage)
			}
			fmt.Println()

			printNextStep("Vectorize an image", "tracevec vectorize drawing.png --dest-width 297 --dest-height 210")
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
