package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/axtree/internal/config"
	"github.com/standardbeagle/axtree/internal/feed"
	"github.com/standardbeagle/axtree/internal/patch"
	"github.com/standardbeagle/axtree/internal/tree"
)

var Version = "0.1.0"

// loadConfigWithOverrides loads .axtree.kdl and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("root"))
	if err != nil {
		return nil, err
	}

	if dir := c.String("dir"); dir != "" {
		cfg.Feed.Dir = dir
	}
	if c.IsSet("debounce-ms") {
		cfg.Feed.DebounceMs = c.Int("debounce-ms")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	app := &cli.App{
		Name:                   "axtree",
		Usage:                  "Incremental tree engine: apply and watch serialized tree patches",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory holding " + config.ConfigFileName,
				Value:   ".",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "apply",
				Aliases:   []string{"a"},
				Usage:     "Apply patch files in argument order and print the resulting tree",
				ArgsUsage: "FILE [FILE...]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Suppress the tree dump, report only errors",
					},
				},
				Action: runApply,
			},
			{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Apply patches from the feed directory until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Patch directory (overrides config)",
					},
					&cli.IntFlag{
						Name:  "debounce-ms",
						Usage: "Debounce window for bursts of patch files (overrides config)",
					},
				},
				Action: runWatch,
			},
			{
				Name:      "validate",
				Usage:     "Check that patch files decode and apply cleanly, without printing the tree",
				ArgsUsage: "FILE [FILE...]",
				Action:    runValidate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "axtree: %v\n", err)
		os.Exit(1)
	}
}

func runApply(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("apply needs at least one patch file")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	tr := tree.New()
	for _, path := range c.Args().Slice() {
		if err := applyFile(tr, cfg, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	if !c.Bool("quiet") {
		fmt.Print(tr.String())
	}
	return nil
}

func runValidate(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("validate needs at least one patch file")
	}

	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	tr := tree.New()
	failures := 0
	for _, path := range c.Args().Slice() {
		if err := applyFile(tr, cfg, path); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Printf("%s: ok\n", path)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d patches failed", failures, c.NArg())
	}
	return nil
}

func applyFile(tr *tree.Tree, cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	u, err := patch.Decode(data)
	if err != nil {
		return err
	}
	if limit := cfg.Engine.MaxNodesPerUpdate; limit > 0 && len(u.Nodes) > limit {
		return fmt.Errorf("patch carries %d records, limit is %d", len(u.Nodes), limit)
	}
	return tr.Unserialize(u)
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	tr := tree.New()
	f, err := feed.New(tr, cfg)
	if err != nil {
		return err
	}
	f.SetOnApplied(func(path string, err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			return
		}
		fmt.Printf("applied %s (%d nodes in tree)\n", path, tr.Size())
	})

	if err := f.Start(); err != nil {
		return err
	}
	fmt.Printf("watching %s\n", cfg.Feed.Dir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	if err := f.Stop(); err != nil {
		return err
	}
	stats := f.Stats()
	fmt.Printf("applied %d patches, %d failed\n", stats.Applied, stats.Failed)
	return nil
}
