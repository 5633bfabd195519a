// Package main provides UI utilities for the MovieMind CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// newSpinner creates a spinner with the given message, writing to stderr so
// piped output stays clean.
func newSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return s
}

// newProgressBar creates a progress bar for ingestion paging.
func newProgressBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func printBot(text string) {
	if noColor {
		fmt.Printf("MovieMind: %s\n", text)
		return
	}
	color.New(color.FgCyan, color.Bold).Print("MovieMind: ")
	fmt.Println(text)
}

func printPrompt() {
	if noColor {
		fmt.Print("You: ")
		return
	}
	color.New(color.FgGreen, color.Bold).Print("You: ")
}

func printSuccess(format string, args ...interface{}) {
	if noColor {
		fmt.Printf("✓ %s\n", fmt.Sprintf(format, args...))
		return
	}
	color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
}

func printError(format string, args ...interface{}) {
	if noColor {
		fmt.Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
		return
	}
	color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}
