package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/tornado/cli/render"
	"github.com/pithecene-io/tornado/matcher"
)

// ValidateResult reports whether a standalone config file compiles.
type ValidateResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateCommand returns the validate command: compiles a config file
// with matcher.Build without touching a configstore, for checking a
// draft export or a config under version control before it is ever
// written to a store.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a standalone config file",
		Flags:     append(ReadOnlyFlags(), &cli.StringFlag{Name: "file", Usage: "Path to the config JSON (- for stdin)", Required: true}),
		Action:    validateAction,
	}
}

func validateAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for validate command", 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	data, err := readConfigFile(c.String("file"))
	if err != nil {
		return err
	}

	var cfg matcher.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return r.Render(ValidateResult{Valid: false, Error: fmt.Sprintf("invalid config JSON: %s", err)})
	}

	if _, err := matcher.Build(&cfg); err != nil {
		return r.Render(ValidateResult{Valid: false, Error: err.Error()})
	}

	return r.Render(ValidateResult{Valid: true})
}
