package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/nikbrunner/autobm/internal/app"
	"github.com/nikbrunner/autobm/internal/exporter"
	"github.com/nikbrunner/autobm/internal/importer"
	"github.com/nikbrunner/autobm/internal/messaging"
	"github.com/nikbrunner/autobm/internal/model"
	"github.com/nikbrunner/autobm/internal/observer"
	"github.com/nikbrunner/autobm/internal/observer/htmldom"
	"github.com/nikbrunner/autobm/internal/picker"
	"github.com/nikbrunner/autobm/internal/popup"
	"github.com/nikbrunner/autobm/internal/search"
	"github.com/nikbrunner/autobm/internal/settings"
)

func clickCommand() *cli.Command {
	return &cli.Command{
		Name:      "click",
		Usage:     "Click a link on a page and send it to the running server",
		ArgsUsage: "<page url or file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "link",
				Usage: "href or text of the link to click (default: first link)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			src := cmd.Args().First()
			if src == "" {
				return fmt.Errorf("usage: autobm click <page url or file>")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}
			logger := app.NewLogger(os.Stderr, cfg.App.LogLevel, false)

			doc, err := loadPage(ctx, src)
			if err != nil {
				return err
			}

			anchor := findAnchor(doc, cmd.String("link"))
			if anchor == nil {
				return fmt.Errorf("no matching link on %s", src)
			}

			// Land on the innermost element, as a pointer would.
			target := anchor
			for c := target.FirstChild(); c != nil; c = c.FirstChild() {
				target = c
			}

			obs := observer.New(messaging.NewHTTPSender(cfg.App.HTTP.URL()), doc,
				observer.WithOwnSurface(observer.IndicatorID),
				observer.WithLogger(logger))
			if !obs.OnDocumentClick(ctx, doc.ClickOn(target)) {
				fmt.Printf("Ignored: %s\n", anchor.Href())
				return nil
			}
			fmt.Printf("Sent: %s\n", anchor.Href())
			return nil
		},
	}
}

func loadPage(ctx context.Context, src string) (*htmldom.Document, error) {
	if messaging.IsNetworkURL(src) {
		ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch page: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch page: %s", resp.Status)
		}
		return htmldom.Parse(resp.Body, resp.Request.URL.String())
	}

	abs, err := filepath.Abs(src)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return htmldom.Parse(f, "file://"+filepath.ToSlash(abs))
}

// findAnchor returns the first link whose href equals match or whose text
// contains it. An empty match selects the first link.
func findAnchor(doc *htmldom.Document, match string) *htmldom.Element {
	for _, a := range doc.Anchors() {
		if match == "" || a.Href() == match || strings.Contains(observer.CollapseSpace(a.Text()), match) {
			return a
		}
	}
	return nil
}

func popupCommand() *cli.Command {
	return &cli.Command{
		Name:  "popup",
		Usage: "Open the settings panel",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			m := popup.New(ctx, popup.Params{
				Settings:  a.Settings,
				Folders:   a.Folders,
				Bookmarks: a.Bookmarks,
			})
			_, err = tea.NewProgram(m).Run()
			return err
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether capture is on and where links are saved",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			enabled, err := settings.Enabled(ctx, a.Settings)
			if err != nil {
				return err
			}
			visible, err := settings.IndicatorVisible(ctx, a.Settings)
			if err != nil {
				return err
			}

			indicator := "OFF"
			switch {
			case visible:
				indicator = "ON"
			case enabled:
				indicator = "hidden"
			}

			capture := "disabled"
			if enabled {
				capture = "enabled"
			}
			fmt.Printf("capture:   %s\n", capture)
			fmt.Printf("indicator: %s\n", indicator)

			node, ok := a.Folders.Lookup(ctx)
			if !ok {
				fmt.Println("folder:    (not created yet)")
				return nil
			}
			captured, err := a.Captured(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("folder:    %s (%s)\n", node.Title, node.ID)
			fmt.Printf("captured:  %d\n", len(captured))
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Fuzzy search captured links and print the chosen URL",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "search every bookmark, not only captured ones"},
			&cli.BoolFlag{Name: "yank", Aliases: []string{"y"}, Usage: "copy the URL to the clipboard"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if query == "" {
				return fmt.Errorf("usage: autobm search <query>")
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var nodes []model.Node
			if cmd.Bool("all") {
				for _, b := range a.Bookmarks.Snapshot().Bookmarks {
					nodes = append(nodes, model.BookmarkNode(b))
				}
			} else if nodes, err = a.Captured(ctx); err != nil {
				return err
			}

			results := search.Bookmarks(nodes, query)
			if len(results) == 0 {
				fmt.Printf("No bookmarks found for '%s'\n", query)
				return nil
			}

			selected := results[0].Node
			if len(results) > 1 {
				final, err := tea.NewProgram(picker.New(results, query)).Run()
				if err != nil {
					return fmt.Errorf("run picker: %w", err)
				}
				node, ok := final.(picker.Picker).Selected()
				if !ok {
					return nil
				}
				selected = node
			}

			fmt.Println(selected.URL)
			if cmd.Bool("yank") {
				return clipboard.WriteAll(selected.URL)
			}
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a browser bookmark export so known links are not captured again",
		ArgsUsage: "<file.html>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: autobm import <file.html>")
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := importer.ParseHTML(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			added, skipped, err := a.Bookmarks.Import(ctx, model.OtherBookmarksID, result.Folders, result.Bookmarks)
			if err != nil {
				return err
			}

			fmt.Printf("Imported %d bookmarks, %d folders", added, len(result.Folders))
			if skipped > 0 {
				fmt.Printf(" (%d duplicates skipped)", skipped)
			}
			if result.Skipped > 0 {
				fmt.Printf(" (%d non-web links ignored)", result.Skipped)
			}
			fmt.Println()
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export captured links as a browser bookmark file",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "export every bookmark, not only captured ones"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) (err error) {
			a, err := openApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			store := a.Bookmarks.Snapshot()
			write := func(w io.Writer) error { return exporter.ExportHTML(w, store) }
			if !cmd.Bool("all") {
				node, ok := a.Folders.Lookup(ctx)
				if !ok {
					return errors.New("nothing captured yet")
				}
				write = func(w io.Writer) error { return exporter.ExportFolder(w, store, node.ID) }
			}

			path := cmd.Args().First()
			if path == "" {
				if path, err = exporter.DefaultExportPath(time.Now()); err != nil {
					return err
				}
			}

			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()

			if err := write(f); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Printf("Exported to %s\n", path)
			return nil
		},
	}
}
