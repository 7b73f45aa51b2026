package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/mcpserver"
	"github.com/starford/neuralnotes/internal/storage"
	"github.com/starford/neuralnotes/internal/tui"
)

// ImportParams selects the folder to import and the target vault. An empty
// VaultID creates a new vault named after the folder.
type ImportParams struct {
	Folder  string
	VaultID string
}

// RunImport loads every markdown file under a folder into a vault and
// prints the import result as JSON.
func RunImport(ctx context.Context, p ImportParams, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	db, err := app.openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	svc := app.newService(db, nil)

	folder, err := storage.NewFS(p.Folder)
	if err != nil {
		return fmt.Errorf("open folder: %w", err)
	}
	files, err := importer.LoadFolder(folder)
	if err != nil {
		return fmt.Errorf("load folder: %w", err)
	}

	var res *importer.Result
	if p.VaultID == "" {
		res, err = svc.ImportVault(ctx, files)
	} else {
		res, err = svc.ImportNotes(ctx, p.VaultID, files)
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	app.logger.Info("import finished",
		slog.Int("created", len(res.Created)),
		slog.Int("linked", res.Linked),
		slog.Int("failures", len(res.Failures)))
	return app.printJSON(res)
}

// RunExport writes every note of a vault to dir as <title>.md.
func RunExport(ctx context.Context, vaultID, dir string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	db, err := app.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	dst, err := storage.NewFS(dir)
	if err != nil {
		return fmt.Errorf("open folder: %w", err)
	}
	rep, err := importer.Export(ctx, db, vaultID, dst, app.logger)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return app.printJSON(rep)
}

// RunRelink re-resolves the wikilinks of every note in a vault.
func RunRelink(ctx context.Context, vaultID string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	db, err := app.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := app.newService(db, nil).Relink(ctx, vaultID)
	if err != nil {
		return fmt.Errorf("relink: %w", err)
	}
	return app.printJSON(rep)
}

// RunGraph opens the interactive graph view of a vault in the terminal.
// The caller should pass a logger that does not write to the terminal.
func RunGraph(ctx context.Context, vaultID string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	db, err := app.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := app.newService(db, nil)
	if _, err := svc.GetVault(ctx, vaultID); err != nil {
		return fmt.Errorf("vault %q: %w", vaultID, err)
	}
	return tui.Run(ctx, svc, vaultID, tui.Options{
		FPS:    app.config.Graph.FPS,
		Params: app.config.Graph.Params,
		Logger: app.logger,
	})
}

// RunMCP serves the MCP tools over stdio. Logs must go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	db, err := app.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	srv := mcpserver.New(app.newService(db, nil), Version)
	app.logger.Info("MCP server starting", slog.String("transport", "stdio"))
	if err := srv.ServeStdio(ctx); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func (a *application) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
