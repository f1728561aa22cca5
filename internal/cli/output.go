package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	appErrors "github.com/noah-isme/sicali-client/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The backend or a validation rule rejected the operation
	ExitCommandError = 2 // Bad flags or arguments, unusable configuration
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// reported is set once the error has been written to the user.
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the envelope for json and yaml output.
type CLIResponse struct {
	Status string    `json:"status" yaml:"status"`
	Data   any       `json:"data,omitempty" yaml:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty" yaml:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
	Details any    `json:"details,omitempty" yaml:"details,omitempty"`
}

// Table is the text rendering of a result.
type Table struct {
	Headers []string
	Rows    [][]string
}

// OutputFormatter prints results as text, json or yaml.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// Success prints data. In text mode table is used when given, data otherwise.
func (f *OutputFormatter) Success(data any, table *Table) error {
	switch f.Format {
	case "json":
		return f.encodeJSON(CLIResponse{Status: "ok", Data: data})
	case "yaml":
		return f.encodeYAML(CLIResponse{Status: "ok", Data: data})
	}
	if table != nil {
		return table.write(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error prints err and returns the ExitError the command should exit with.
func (f *OutputFormatter) Error(err error) error {
	return f.ErrorWithDetails(err, nil, nil)
}

// ErrorWithDetails is Error with a payload, such as the partial result of a
// bulk operation, reported in place of the underlying cause. In text mode table
// renders the payload.
func (f *OutputFormatter) ErrorWithDetails(err error, details any, table *Table) error {
	code := GetExitCode(err)
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.reported {
			return exitErr
		}
		if exitErr.Err != nil {
			err = exitErr.Err
		}
	}

	cliErr := &CLIError{Code: "FAILED", Message: err.Error()}
	var appErr *appErrors.Error
	if code == ExitCommandError {
		cliErr.Code = "COMMAND_ERROR"
	} else if errors.As(err, &appErr) {
		cliErr.Code = appErr.Code
		cliErr.Message = appErr.Message
		if appErr.Err != nil {
			cliErr.Details = appErr.Err.Error()
		}
	}
	if details != nil {
		cliErr.Details = details
	}

	var werr error
	switch f.Format {
	case "json":
		werr = f.encodeJSON(CLIResponse{Status: "error", Error: cliErr})
	case "yaml":
		werr = f.encodeYAML(CLIResponse{Status: "error", Error: cliErr})
	default:
		_, werr = fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
		if werr == nil && details != nil && table != nil {
			werr = table.write(f.errWriter())
		} else if werr == nil && f.Verbose && cliErr.Details != nil {
			_, werr = fmt.Fprintf(f.errWriter(), "Details: %v\n", cliErr.Details)
		}
	}
	if werr != nil {
		return werr
	}
	if code == ExitSuccess {
		code = ExitFailure
	}
	out := WrapExitError(code, cliErr.Message, err)
	out.reported = true
	return out
}

// VerboseLog writes a diagnostic line when verbose output is on.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encodeJSON(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// encodeYAML goes through JSON first so keys match the json tags of the models.
func (f *OutputFormatter) encodeYAML(resp CLIResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(f.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (t *Table) write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}
