package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/custodia-labs/sercha-code/internal/core/domain"
)

// progressPrinter renders scan progress. On a terminal it redraws one
// line; otherwise it prints one line per stage.
type progressPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	stage domain.ScanStage
	drawn bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &progressPrinter{w: w, tty: tty}
}

// Report implements domain.ProgressFunc.
func (p *progressPrinter) Report(stage domain.ScanStage, percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tty {
		if stage == domain.StageDone {
			p.clear()
			return
		}
		fmt.Fprintf(p.w, "\r\033[K%s... %3d%%", stageLabel(stage), percent)
		p.drawn = true
		return
	}

	if stage != p.stage && stage != domain.StageDone {
		fmt.Fprintf(p.w, "%s...\n", stageLabel(stage))
	}
	p.stage = stage
}

// Done clears any partially drawn line.
func (p *progressPrinter) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clear()
}

func (p *progressPrinter) clear() {
	if p.drawn {
		fmt.Fprint(p.w, "\r\033[K")
		p.drawn = false
	}
}

func stageLabel(stage domain.ScanStage) string {
	switch stage {
	case domain.StagePreparing:
		return "Preparing files"
	case domain.StageUploading:
		return "Uploading"
	case domain.StageAnalysing:
		return "Analysing"
	default:
		return string(stage)
	}
}
