package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tracevec/tracevec/pkg/imaging"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ImageListModel - Interactive image file selection
// =============================================================================

// ImageEntry is one selectable image file.
type ImageEntry struct {
	Path     string
	Format   string
	Size     int64
	Modified time.Time
}

// ImageListModel is the bubbletea model for interactive image selection,
// used when the vectorize command is given a directory.
type ImageListModel struct {
	Images   []ImageEntry
	Cursor   int
	Selected *ImageEntry
	Height   int
	Offset   int
}

// NewImageListModel creates a new image list model.
func NewImageListModel(images []ImageEntry) ImageListModel {
	return ImageListModel{
		Images: images,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m ImageListModel) Init() tea.Cmd {
	return nil
}

func (m ImageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Images)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Images) > 0 {
				m.Selected = &m.Images[m.Cursor]
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ImageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Image"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Images) {
		end = len(m.Images)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		img := m.Images[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		rows = append(rows, []string{
			cursor,
			filepath.Base(img.Path),
			img.Format,
			formatSize(img.Size),
			formatRelativeTime(img.Modified),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "File", "Format", "Size", "Modified").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			if col >= 2 {
				return listDimStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Images))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// listImages collects the decodable image files directly under dir, sorted
// by name.
func listImages(dir string) ([]ImageEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	supported := imaging.SupportedExtensions()
	var images []ImageEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if !slices.Contains(supported, ext) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, ImageEntry{
			Path:     filepath.Join(dir, e.Name()),
			Format:   ext,
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	slices.SortFunc(images, func(a, b ImageEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	return images, nil
}

// pickImage runs the interactive picker and returns the chosen path, or ""
// when the user quit without selecting.
func pickImage(dir string) (string, error) {
	images, err := listImages(dir)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", fmt.Errorf("no supported images in %s", dir)
	}

	final, err := tea.NewProgram(NewImageListModel(images)).Run()
	if err != nil {
		return "", err
	}
	model, ok := final.(ImageListModel)
	if !ok || model.Selected == nil {
		return "", nil
	}
	return model.Selected.Path, nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
