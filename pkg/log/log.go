// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/thumbref/pkg/status"
)

// 🎯 FileOperation is one rewritten file as shown to the user
type FileOperation struct {
	Path       string            // Path relative to the run root
	Status     status.FileStatus // Outcome
	References int               // References replaced, or found for failures and dry runs
	Err        error             // Read or write failure
}

// 📊 Summary is the end-of-run report
type Summary struct {
	Files           int  // Candidate files processed
	References      int  // References updated (or that would be, in a dry run)
	FailedFiles     int  // Files that hit a read or write error
	FoundNotApplied int  // References found in files whose write failed
	DryRun          bool // Whether this was a dry run
}

// 🎯 Logger writes human-readable progress to the console and mirrors
// every line to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 LogFileOperation prints one file line, plus the error if there is one
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, status.FormatFileOperation(op.Path, op.Status, op.References))

	if op.Err != nil {
		fmt.Fprintf(l.console, "      %s\n", color.New(color.FgRed).Sprint(op.Err.Error()))
		l.zlog.Error().
			Err(op.Err).
			Str("file", op.Path).
			Str("status", op.Status.String()).
			Int("references", op.References).
			Msg("file operation failed")
		return
	}

	l.zlog.Debug().
		Str("file", op.Path).
		Str("status", op.Status.String()).
		Int("references", op.References).
		Msg("file operation")
}

// 📝 Settings prints the options a run uses
func (l *Logger) Settings(format string, dryRun bool, root string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dry := "No"
	if dryRun {
		dry = "Yes"
	}
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.Faint).Sprint("Target format:"), format)
	fmt.Fprintf(l.console, "%s %s\n", color.New(color.Faint).Sprint("Dry run:      "), dry)
	fmt.Fprintf(l.console, "%s %s\n\n", color.New(color.Faint).Sprint("Root:         "), root)

	l.zlog.Info().Str("format", format).Bool("dry_run", dryRun).Str("root", root).Msg("run settings")
}

// 📝 Summary prints the end-of-run report and the guidance that follows it
func (l *Logger) Summary(s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprint(l.console, pterm.DefaultSection.Sprint("📊 Summary"))

	stats := pterm.Info.WithPrefix(pterm.Prefix{Text: "📦", Style: pterm.Info.Prefix.Style})
	fmt.Fprint(l.console, stats.Sprintln(fmt.Sprintf("Files processed: %d", s.Files)))
	fmt.Fprint(l.console, stats.Sprintln(fmt.Sprintf("Total references updated: %d", s.References)))

	if s.FailedFiles > 0 {
		fmt.Fprint(l.console, pterm.Warning.Sprintln(fmt.Sprintf("Files with errors: %d", s.FailedFiles)))
	}
	if s.FoundNotApplied > 0 {
		fmt.Fprint(l.console, pterm.Warning.Sprintln(fmt.Sprintf("References found but not written: %d", s.FoundNotApplied)))
	}

	fmt.Fprintln(l.console)

	switch {
	case s.References > 0 && s.DryRun:
		fmt.Fprint(l.console, pterm.Info.Sprintln("This was a dry run. Run without --dry-run to apply changes."))
	case s.References > 0 && s.FailedFiles == 0:
		fmt.Fprint(l.console, pterm.Success.Sprintln("All references updated successfully!"))
		fmt.Fprintln(l.console)
		fmt.Fprintln(l.console, "Next steps:")
		fmt.Fprintln(l.console, "1. Test your website to ensure images display correctly")
		fmt.Fprintln(l.console, "2. Commit the changes: git add -A && git commit -m 'Update thumbnail references'")
	case s.References > 0:
		fmt.Fprint(l.console, pterm.Warning.Sprintln("Some references were updated, but not every file could be processed."))
	case s.FailedFiles > 0:
		fmt.Fprint(l.console, pterm.Warning.Sprintln("No references were updated and some files could not be processed."))
	default:
		fmt.Fprint(l.console, pterm.Info.Sprintln("No changes needed - all references are already up to date!"))
	}

	l.zlog.Info().
		Int("files", s.Files).
		Int("references", s.References).
		Int("failed_files", s.FailedFiles).
		Int("found_not_applied", s.FoundNotApplied).
		Bool("dry_run", s.DryRun).
		Msg("run complete")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("thumbref")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
