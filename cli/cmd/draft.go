package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/tornado/cli/reader"
	"github.com/pithecene-io/tornado/cli/render"
	"github.com/pithecene-io/tornado/matcher"
)

// DraftCommand returns the draft command with subcommands covering the
// full draft workflow (§4.5): create, list, get, update, take-over,
// deploy, delete.
func DraftCommand() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Manage MatcherConfig drafts",
		Subcommands: []*cli.Command{
			draftCreateCommand(),
			draftListCommand(),
			draftGetCommand(),
			draftUpdateCommand(),
			draftTakeOverCommand(),
			draftDeployCommand(),
			draftDeleteCommand(),
		},
	}
}

func draftCreateCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create a draft seeded from the current live config",
		Flags: append([]cli.Flag{configFlag},
			&cli.StringFlag{Name: "user", Usage: "Owner user", Required: true},
		),
		Action: draftCreateAction,
	}
}

func draftCreateAction(c *cli.Context) error {
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	id, err := store.CreateDraft(c.Context, c.String("user"))
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(map[string]string{"draft_id": id})
}

func draftListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List all drafts",
		Flags:  append(ReadOnlyFlags(), configFlag),
		Action: draftListAction,
	}
}

func draftListAction(c *cli.Context) error {
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for draft list", 1)
	}

	items, err := reader.NewStoreReader(store, nil).ListDrafts(c.Context)
	if err != nil {
		return fmt.Errorf("list drafts: %w", err)
	}
	return r.Render(items)
}

func draftGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print a draft's config as JSON",
		ArgsUsage: "<draft-id>",
		Flags:     []cli.Flag{configFlag},
		Action:    draftGetAction,
	}
}

func draftGetAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("draft-id required", 1)
	}
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	draft, err := store.GetDraft(c.Context, c.Args().First())
	if err != nil {
		return fmt.Errorf("get draft: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(draft)
}

func draftUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Replace a draft's config from a JSON file",
		ArgsUsage: "<draft-id>",
		Flags: append([]cli.Flag{configFlag},
			&cli.StringFlag{Name: "user", Usage: "Editing user", Required: true},
			&cli.StringFlag{Name: "file", Usage: "Path to the new config JSON (- for stdin)", Required: true},
		),
		Action: draftUpdateAction,
	}
}

func draftUpdateAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("draft-id required", 1)
	}

	data, err := readConfigFile(c.String("file"))
	if err != nil {
		return err
	}
	var cfg matcher.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}

	store, err := loadStore(c)
	if err != nil {
		return err
	}

	if err := store.UpdateDraft(c.Context, c.Args().First(), c.String("user"), &cfg); err != nil {
		return fmt.Errorf("update draft: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(map[string]string{"status": "ok"})
}

// readConfigFile reads path, or stdin when path is "-".
func readConfigFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func draftTakeOverCommand() *cli.Command {
	return &cli.Command{
		Name:      "take-over",
		Usage:     "Reassign a draft's owner",
		ArgsUsage: "<draft-id>",
		Flags: append([]cli.Flag{configFlag},
			&cli.StringFlag{Name: "user", Usage: "New owner user", Required: true},
		),
		Action: draftTakeOverAction,
	}
}

func draftTakeOverAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("draft-id required", 1)
	}
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	if err := store.DraftTakeOver(c.Context, c.Args().First(), c.String("user")); err != nil {
		return fmt.Errorf("take over draft: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(map[string]string{"status": "ok"})
}

func draftDeployCommand() *cli.Command {
	return &cli.Command{
		Name:      "deploy",
		Usage:     "Deploy a draft's config as the live config",
		ArgsUsage: "<draft-id>",
		Flags:     []cli.Flag{configFlag},
		Action:    draftDeployAction,
	}
}

func draftDeployAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("draft-id required", 1)
	}
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	cfg, err := store.DeployDraft(c.Context, c.Args().First())
	if err != nil {
		return fmt.Errorf("deploy draft: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(cfg)
}

func draftDeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a draft",
		ArgsUsage: "<draft-id>",
		Flags:     []cli.Flag{configFlag},
		Action:    draftDeleteAction,
	}
}

func draftDeleteAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("draft-id required", 1)
	}
	store, err := loadStore(c)
	if err != nil {
		return err
	}

	if err := store.DeleteDraft(c.Context, c.Args().First()); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return r.Render(map[string]string{"status": "ok"})
}
