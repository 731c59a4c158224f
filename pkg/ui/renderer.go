// Package ui renders duplicate groups, move previews and run summaries
// for the terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/ndetect/pkg/operations"
	"github.com/arthur-debert/ndetect/pkg/similarity"
	"github.com/arthur-debert/ndetect/pkg/style"
	"github.com/arthur-debert/ndetect/pkg/types"
)

// Renderer writes human-readable output. When color is off, styling is
// skipped entirely so the output stays clean in pipes and tests.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer builds a renderer with explicit color control
func NewRenderer(w io.Writer, color bool) *Renderer {
	return &Renderer{out: w, color: color}
}

// NewConsoleRenderer builds a renderer for stdout, enabling color only
// when stdout is a terminal and the environment does not disable it
func NewConsoleRenderer() *Renderer {
	color := (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) &&
		!termenv.EnvNoColor()
	return &Renderer{out: os.Stdout, color: color}
}

func (r *Renderer) title(s string) string {
	if r.color {
		return style.TitleStyle.Render(s)
	}
	return s
}

func (r *Renderer) muted(s string) string {
	if r.color {
		return style.MutedStyle.Render(s)
	}
	return s
}

func (r *Renderer) path(s string) string {
	if r.color {
		return style.PathStyle.Render(s)
	}
	return s
}

func (r *Renderer) keeper(s string) string {
	if r.color {
		return style.KeeperStyle.Render(s)
	}
	return s
}

// RenderGroups prints one table of all duplicate groups. Sizes come from
// the file index when available.
func (r *Renderer) RenderGroups(groups []similarity.Group, index map[string]*types.TextFile) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(r.out, r.muted("No duplicate groups found"))
		return err
	}

	fmt.Fprintln(r.out, r.title(fmt.Sprintf("Found %d duplicate group(s)", len(groups))))

	data := pterm.TableData{{"Group", "Similarity", "Files", "Path", "Size"}}
	for _, group := range groups {
		for i, path := range group.Files {
			groupCol, simCol, countCol := "", "", ""
			if i == 0 {
				groupCol = fmt.Sprintf("%d", group.ID)
				simCol = fmt.Sprintf("%.1f%%", group.Similarity*100)
				countCol = fmt.Sprintf("%d", len(group.Files))
			}
			data = append(data, []string{groupCol, simCol, countCol, path, r.fileSize(index, path)})
		}
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, rendered)
	return err
}

// RenderGroupDetail prints one group with its pairwise similarities
func (r *Renderer) RenderGroupDetail(group similarity.Group, similarities map[similarity.Pair]float64) error {
	fmt.Fprintln(r.out, r.title(fmt.Sprintf("Group %d (mean similarity %.1f%%)", group.ID, group.Similarity*100)))
	for _, path := range group.Files {
		fmt.Fprintf(r.out, "  %s\n", r.path(path))
	}

	if len(similarities) == 0 {
		return nil
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.muted("Pairwise similarities:"))

	pairs := make([]similarity.Pair, 0, len(similarities))
	for pair := range similarities {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	for _, pair := range pairs {
		fmt.Fprintf(r.out, "  %s <-> %s: %.1f%%\n", pair.A, pair.B, similarities[pair]*100)
	}
	return nil
}

// RenderMovePreview prints the planned moves for one batch
func (r *Renderer) RenderMovePreview(moves []*operations.MoveOperation, dryRun bool) error {
	if len(moves) == 0 {
		_, err := fmt.Fprintln(r.out, r.muted("Nothing to move"))
		return err
	}

	heading := fmt.Sprintf("Moving %d file(s)", len(moves))
	if dryRun {
		heading = fmt.Sprintf("Would move %d file(s) (dry run)", len(moves))
	}
	fmt.Fprintln(r.out, r.title(heading))

	data := pterm.TableData{{"Source", "Destination"}}
	for _, move := range moves {
		data = append(data, []string{move.Source, move.Destination})
	}
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.out, rendered)
	return err
}

// RenderKeepers prints the retention decision per group
func (r *Renderer) RenderKeepers(keepers map[int]string) error {
	ids := make([]int, 0, len(keepers))
	for id := range keepers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(r.out, "  group %d: keeping %s\n", id, r.keeper(keepers[id]))
	}
	return nil
}

// RenderSummary prints the end-of-run totals
func (r *Renderer) RenderSummary(scanned, groups, moved int) error {
	parts := []string{
		fmt.Sprintf("%d file(s) scanned", scanned),
		fmt.Sprintf("%d duplicate group(s)", groups),
		fmt.Sprintf("%d file(s) moved", moved),
	}
	_, err := fmt.Fprintln(r.out, r.title("Done: ")+strings.Join(parts, ", "))
	return err
}

func (r *Renderer) fileSize(index map[string]*types.TextFile, path string) string {
	file, ok := index[path]
	if !ok {
		return ""
	}
	return formatSize(file.Size)
}

// formatSize renders a byte count with a binary unit suffix
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
