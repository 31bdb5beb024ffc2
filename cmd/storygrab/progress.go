package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/v0xg/storygrab/internal/story"
)

// progress prints accepted pages and, with a dump dir, saves the document
// HTML of every step as step_0001.html, step_0002.html and so on.
func progress(dumpDir string, log *zap.Logger) story.Observer {
	return func(doc story.Document, step story.Step) {
		if step.Verdict == story.Accepted {
			fmt.Printf("  page %d: %s\n", step.Page.ID, preview(step.Page.Text, 60))
		}
		if dumpDir == "" {
			return
		}
		html, err := doc.HTML()
		if err != nil {
			log.Warn("dump failed", zap.Int("iteration", step.Iteration), zap.Error(err))
			return
		}
		path := filepath.Join(dumpDir, fmt.Sprintf("step_%04d.html", step.Iteration))
		if err := os.MkdirAll(dumpDir, 0o755); err != nil {
			log.Warn("dump failed", zap.Error(err))
			return
		}
		if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
			log.Warn("dump failed", zap.String("path", path), zap.Error(err))
		}
	}
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
