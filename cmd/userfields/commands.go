package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-userfields/internal/httpapi"
	"github.com/goliatone/go-userfields/internal/nonce"
	"github.com/goliatone/go-userfields/pkg/model"
	"github.com/goliatone/go-userfields/pkg/render"
	"github.com/goliatone/go-userfields/pkg/sanitize"
	"github.com/goliatone/go-userfields/pkg/tui"
)

func runServe(ctx context.Context, env *runtime, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	addr := fs.String("addr", env.cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret := env.cfg.Auth.Secret
	if secret == "" {
		// Nonces issued by this process stop verifying after a restart.
		secret = uuid.NewString()
		env.logger.Warn("no nonce secret configured; using an ephemeral one")
	}
	nonces, err := nonce.New(secret, env.cfg.Auth.TTL)
	if err != nil {
		return err
	}
	server, err := httpapi.New(httpapi.Deps{
		Service:   env.svc,
		Bookings:  env.store,
		Nonces:    nonces,
		Logger:    env.logger,
		AuthToken: env.cfg.Auth.Token,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  env.cfg.Server.ReadTimeout,
		WriteTimeout: env.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		env.logger.Info("starting userfields server", zap.String("addr", *addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	env.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runEdit(ctx context.Context, env *runtime, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := env.svc.GlobalFields(ctx)
	if err != nil {
		return err
	}
	session := tui.New(list,
		tui.WithPromptDriver(tui.NewSurveyDriver(env.stdout)),
		tui.WithTheme(tui.Theme{ErrorPrefix: "! "}),
	)
	outcome, err := session.Run(ctx)
	if errors.Is(err, tui.ErrAborted) {
		fmt.Fprintln(env.stdout, "Aborted; nothing saved.")
		return nil
	}
	if err != nil {
		return err
	}
	if outcome != tui.OutcomeSaved {
		fmt.Fprintln(env.stdout, "Discarded; nothing saved.")
		return nil
	}

	saved, ok, err := env.svc.SaveGlobal(ctx, session.Editor().Transport())
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("edited list could not be read; previous fields kept")
	}
	fmt.Fprintf(env.stdout, "Saved %d field(s).\n", len(saved))
	return nil
}

// exportDocument is the YAML shape shared by export and import.
type exportDocument struct {
	Calendar int64      `yaml:"calendar,omitempty"`
	Exported string     `yaml:"exported"`
	Fields   model.List `yaml:"fields"`
}

func runExport(ctx context.Context, env *runtime, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	calendar := fs.Int64("calendar", 0, "export the list resolved for this calendar instead of the global list")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		list model.List
		err  error
	)
	if *calendar > 0 {
		list, err = env.svc.FieldsFor(ctx, *calendar)
	} else {
		list, err = env.svc.GlobalFields(ctx)
	}
	if err != nil {
		return err
	}
	if list == nil {
		list = model.List{}
	}

	raw, err := yaml.Marshal(exportDocument{
		Calendar: *calendar,
		Exported: time.Now().UTC().Format(time.RFC3339),
		Fields:   list,
	})
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return writeOutput(env, *output, raw)
}

func runImport(ctx context.Context, env *runtime, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import: expected one YAML file")
	}

	raw, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	var doc exportDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("import: parse %s: %w", fs.Arg(0), err)
	}

	saved, ok, err := env.svc.SaveGlobal(ctx, sanitize.Encode(doc.Fields))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("import: field list rejected; previous fields kept")
	}
	fmt.Fprintf(env.stdout, "Imported %d field(s).\n", len(saved))
	return nil
}

func runRender(ctx context.Context, env *runtime, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	calendar := fs.Int64("calendar", 0, "calendar id")
	locale := fs.String("locale", "", "locale passed to the translator")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *calendar <= 0 {
		return errors.New("render: -calendar is required")
	}

	html, err := env.svc.RenderFields(ctx, *calendar, render.RenderOptions{Locale: *locale})
	if err != nil {
		return err
	}
	return writeOutput(env, *output, html)
}

func runSchema(ctx context.Context, env *runtime, args []string) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	calendar := fs.Int64("calendar", 0, "calendar id (0 for the global list)")
	path := fs.String("path", "/bookings", "operation path in the document")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := env.svc.SchemaDocument(ctx, *calendar, *path)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return writeOutput(env, *output, append(raw, '\n'))
}

func writeOutput(env *runtime, path string, data []byte) error {
	if path == "" {
		_, err := env.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(env.stderr, "Written to %s\n", path)
	return nil
}
