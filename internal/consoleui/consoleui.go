/*
 * MIT License
 *
 * Copyright (c) 2024 MSL-Network Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package consoleui holds the small set of interactive-prompt helpers the
// CLI needs (certgen/keygen/user subcommands), adapted from the teacher's
// console package: colored prompt/print helpers over fatih/color plus
// mattn/go-colorable for Windows-safe coloring, and a password prompt over
// golang.org/x/term (the teacher's own terminal.ReadPassword predates the
// x/term split; x/term is its direct successor and already in go.mod).
package consoleui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"golang.org/x/term"
)

var (
	promptColor = color.New(color.FgCyan)
	errorColor  = color.New(color.FgRed, color.Bold)
	okColor     = color.New(color.FgGreen)

	stdout = colorable.NewColorableStdout()
	stderr = colorable.NewColorableStderr()
)

// Printf writes a plain informational line.
func Printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(stdout, format, args...)
}

// Okf writes a green success line.
func Okf(format string, args ...interface{}) {
	_, _ = okColor.Fprintf(stdout, format, args...)
}

// Errorf writes a red error line to stderr.
func Errorf(format string, args ...interface{}) {
	_, _ = errorColor.Fprintf(stderr, format, args...)
}

// PromptString reads one line of plain text after printing a cyan prompt.
func PromptString(label string) (string, error) {
	promptColor.Fprintf(stdout, "%s: ", label)
	scn := bufio.NewScanner(os.Stdin)
	if !scn.Scan() {
		if err := scn.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scn.Text()), nil
}

// PromptPassword reads a password with terminal echo disabled, falling
// back to a plain line read when stdin is not a terminal (piped input in
// scripts/tests).
func PromptPassword(label string) (string, error) {
	promptColor.Fprintf(stdout, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(stdout)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	scn := bufio.NewScanner(os.Stdin)
	if !scn.Scan() {
		return "", scn.Err()
	}
	return scn.Text(), nil
}
