package cmd

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/tornado/cli/reader"
	"github.com/pithecene-io/tornado/cli/render"
	"github.com/pithecene-io/tornado/permission"
)

// pathFlag restricts inspect output to one subtree, named as a
// "/"-separated chain of filter names from the root (§4.7).
var pathFlag = &cli.StringFlag{
	Name:  "path",
	Usage: `Restrict output to one subtree, e.g. "region/us_east"`,
}

// nodeFilterForPath builds the NodeFilter admitting exactly the chain
// of filter names in path (root-relative, "/"-separated), or nil for
// an unrestricted view when path is empty.
func nodeFilterForPath(path string) *permission.NodeFilter {
	if path == "" {
		return nil
	}
	names := strings.Split(path, "/")
	nf := permission.All()
	for i := len(names) - 1; i >= 0; i-- {
		nf = permission.Only(map[string]*permission.NodeFilter{names[i]: nf})
	}
	return nf
}

// InspectCommand returns the inspect command with subcommands.
// Inspect returns a deep tree view of the live config or one draft.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the live config or a draft",
		Subcommands: []*cli.Command{
			inspectConfigCommand(),
			inspectDraftCommand(),
		},
	}
}

func inspectConfigCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Inspect the live deployed config",
		Flags:  append(TUIReadOnlyFlags(), configFlag, pathFlag),
		Action: inspectConfigAction,
	}
}

func inspectConfigAction(c *cli.Context) error {
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	rd := reader.NewStoreReader(store, nil)
	var resp *reader.InspectConfigResponse
	if nf := nodeFilterForPath(c.String("path")); nf != nil {
		resp, err = rd.InspectConfigFiltered(c.Context, nf)
	} else {
		resp, err = rd.InspectConfig(c.Context)
	}
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_config", resp)
	}
	return r.Render(resp)
}

func inspectDraftCommand() *cli.Command {
	return &cli.Command{
		Name:      "draft",
		Usage:     "Inspect a draft by ID",
		ArgsUsage: "<draft-id>",
		Flags:     append(TUIReadOnlyFlags(), configFlag, pathFlag),
		Action:    inspectDraftAction,
	}
}

func inspectDraftAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("draft-id required", 1)
	}
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	rd := reader.NewStoreReader(store, nil)
	draftID := c.Args().First()
	var resp *reader.InspectDraftResponse
	if nf := nodeFilterForPath(c.String("path")); nf != nil {
		resp, err = rd.InspectDraftFiltered(c.Context, draftID, nf)
	} else {
		resp, err = rd.InspectDraft(c.Context, draftID)
	}
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_draft", resp)
	}
	return r.Render(resp)
}
