// package formatter renders track listings as CSV, JSON or a styled terminal table
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/auraspace/internal/models"
	"github.com/desertthunder/auraspace/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

var (
	headerStyle   = newBold("#7D56F4").Padding(0, 1)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
	externalStyle = newStyle("#FFA500").Padding(0, 1)
	borderStyle   = newStyle("#626262")
)

func newStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func newBold(fg string) lipgloss.Style {
	return newStyle(fg).Bold(true)
}

// TracksToCSV converts tracks to CSV with columns: ID, Title, Artist, Album, Duration, Location
func TracksToCSV(tracks []*models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Location"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID(),
			track.Title(),
			track.Artist(),
			track.Album(),
			strconv.Itoa(track.Duration()),
			track.TrackURL(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToJSON converts tracks to an indented JSON array. A nil slice renders as [].
func TracksToJSON(tracks []*models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []*models.Track{}
	}
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tracks: %w", err)
	}
	return append(data, '\n'), nil
}

// TracksToTable renders tracks as a bordered table. External locations are highlighted.
func TracksToTable(tracks []*models.Track) string {
	rows := make([][]string, 0, len(tracks))
	for _, track := range tracks {
		rows = append(rows, []string{
			strconv.Itoa(track.Sequence()),
			track.ID(),
			track.Title(),
			track.Artist(),
			shared.FormatDuration(track.Duration()),
			track.TrackURL(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("#", "ID", "Title", "Artist", "Length", "Location").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 5 && row >= 0 && row < len(tracks) && tracks[row].IsExternal():
				return externalStyle
			default:
				return cellStyle
			}
		})

	return t.Render() + "\n" + fmt.Sprintf("%d track(s)\n", len(tracks))
}

// Render formats tracks using the named format.
func Render(tracks []*models.Track, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return []byte(TracksToTable(tracks)), nil
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatJSON:
		return TracksToJSON(tracks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport renders tracks and writes them to path, choosing the format from its extension.
//
// Unknown extensions fall back to CSV.
func WriteExport(tracks []*models.Track, path string) error {
	format := FormatCSV
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}

	data, err := Render(tracks, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
