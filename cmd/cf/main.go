package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"caseflow/internal/app"
	"caseflow/internal/config"
	"caseflow/internal/db"
	"caseflow/internal/domain"
	"caseflow/internal/engine"
	"caseflow/internal/export"
	"caseflow/internal/intake"
	"caseflow/internal/repo"
	"caseflow/internal/schema"
	"caseflow/internal/server"
	"caseflow/internal/triage"
	"caseflow/internal/validate"
)

var rootCmd = &cobra.Command{
	Use:   "cf",
	Short: "CaseFlow CLI",
	Long: `CaseFlow manages client intake and case triage for a small support service.
- Workspace: a .caseflow directory holding the SQLite database; caseflow.yml holds the settings.
- Intake: a four-section referral form (client, referral, risk, consent), validated field by field.
- Triage: every submission is scored 0-100 from the risk answers; the score sets the priority
  band (low/medium/high/urgent) and may raise automatic action flags.
- Cases: move new -> triaged -> assigned -> in_progress -> closed; closing records an outcome.
- Drafts: half-finished intake forms saved for later.
- Event log: diary of changes, view with 'cf log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CASEFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("staff", "", "staff name recorded against changes (defaults to config operator)")
	rootCmd.PersistentFlags().Bool("force", false, "force operation")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("staff", rootCmd.PersistentFlags().Lookup("staff"))
	_ = viper.BindPFlag("force", rootCmd.PersistentFlags().Lookup("force"))
}

func registerCommands() {
	rootCmd.AddCommand(intakeCmd())
	rootCmd.AddCommand(draftCmd())
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func intakeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "intake", Short: "Submit and check intake forms"}
	cmd.AddCommand(intakeSubmitCmd())
	cmd.AddCommand(intakeValidateCmd())
	cmd.AddCommand(intakeTriageCmd())
	return cmd
}

func intakeSubmitCmd() *cobra.Command {
	var answersFile, draftID string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate answers and create a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				answers, err := readAnswers(ctx, e, answersFile, draftID)
				if err != nil {
					return err
				}
				c, err := e.SubmitIntake(ctx, answers, draftID, staffName(e))
				var ve *engine.ValidationError
				if errors.As(err, &ve) {
					printValidationErrors(ve.Fields)
					return err
				}
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&answersFile, "answers-file", "", "JSON file of answers keyed by field id")
	cmd.Flags().StringVar(&draftID, "draft", "", "submit a saved draft by id")
	return cmd
}

func intakeValidateCmd() *cobra.Command {
	var answersFile, section string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check answers without creating a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				answers, err := readAnswers(ctx, e, answersFile, "")
				if err != nil {
					return err
				}
				now := e.Now()
				var errs validate.Errors
				if section != "" {
					errs = validate.Section(section, schema.Fields(), answers, now)
				} else {
					errs = validate.All(schema.Sections(), schema.Fields(), answers, now)
				}
				if len(errs) == 0 {
					fmt.Println("ok")
					return nil
				}
				printValidationErrors(errs)
				return fmt.Errorf("%d invalid fields", len(errs))
			})
		},
	}
	cmd.Flags().StringVar(&answersFile, "answers-file", "", "JSON file of answers keyed by field id")
	cmd.Flags().StringVar(&section, "section", "", "validate a single section (client, referral, risk, consent)")
	return cmd
}

func intakeTriageCmd() *cobra.Command {
	var answersFile string
	cmd := &cobra.Command{
		Use:   "triage",
		Short: "Preview the triage outcome for answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				answers, err := readAnswers(ctx, e, answersFile, "")
				if err != nil {
					return err
				}
				c := intake.Build(answers, "preview", e.Now())
				res := triage.Triage(c)
				return printJSONOrTable(map[string]any{
					"score":              res.Score,
					"priority":           res.Priority,
					"response_timeframe": triage.ResponseTimeframe(res.Priority),
					"flags":              res.Flags,
				})
			})
		},
	}
	cmd.Flags().StringVar(&answersFile, "answers-file", "", "JSON file of answers keyed by field id")
	return cmd
}

func draftCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "draft", Short: "Manage intake drafts"}
	cmd.AddCommand(draftSaveCmd())
	cmd.AddCommand(draftListCmd())
	cmd.AddCommand(draftShowCmd())
	cmd.AddCommand(draftDiscardCmd())
	return cmd
}

func draftSaveCmd() *cobra.Command {
	var answersFile, id, section string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save partially completed answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				answers, err := readAnswersFile(answersFile)
				if err != nil {
					return err
				}
				d, err := e.SaveDraft(ctx, id, section, answers, staffName(e))
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&answersFile, "answers-file", "", "JSON file of answers keyed by field id")
	cmd.Flags().StringVar(&id, "id", "", "draft id (new draft when omitted)")
	cmd.Flags().StringVar(&section, "section", "", "section the form was on")
	_ = cmd.MarkFlagRequired("answers-file")
	return cmd
}

func draftListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				drafts, err := e.ListDrafts(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(drafts)
			})
		},
	}
}

func draftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <draft-id>",
		Short: "Show a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				d, err := e.GetDraft(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
}

func draftDiscardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <draft-id>",
		Short: "Discard a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DiscardDraft(ctx, args[0])
			})
		},
	}
}

func caseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "case", Short: "Manage cases"}
	cmd.AddCommand(caseListCmd())
	cmd.AddCommand(caseGetCmd())
	cmd.AddCommand(caseSetStatusCmd())
	cmd.AddCommand(caseAssignCmd())
	cmd.AddCommand(caseNoteCmd())
	cmd.AddCommand(caseCloseCmd())
	cmd.AddCommand(caseDeleteCmd())
	cmd.AddCommand(caseClearCmd())
	return cmd
}

func caseListCmd() *cobra.Command {
	var f repo.CaseFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cases, err := e.ListCases(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(cases)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Client", "Status", "Priority", "Score", "Assigned"})
				for _, c := range cases {
					tw.AppendRow(table.Row{c.ID, c.Client.FullName, c.Status, c.Priority, c.TriageScore, c.AssignedTo})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Priority, "priority", "", "priority filter")
	cmd.Flags().StringVar(&f.AssignedTo, "assigned-to", "", "assignee filter")
	cmd.Flags().StringVar(&f.Search, "search", "", "match client name, id or postcode")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max results")
	return cmd
}

func caseGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <case-id>",
		Short: "Show a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.GetCase(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
}

func caseSetStatusCmd() *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "set-status <case-id>",
		Short: "Move a case along the lifecycle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.UpdateStatus(ctx, args[0], domain.CaseStatus(status), staffName(e), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "target status (triaged, assigned, in_progress)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func caseAssignCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "assign <case-id>",
		Short: "Assign a case to a staff member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.Assign(ctx, args[0], to, staffName(e), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "staff member taking the case")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func caseNoteCmd() *cobra.Command {
	var content string
	cmd := &cobra.Command{
		Use:   "note <case-id>",
		Short: "Add a note to a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.AddNote(ctx, args[0], content, staffName(e))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "note text")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func caseCloseCmd() *cobra.Command {
	var outcome, details string
	cmd := &cobra.Command{
		Use:   "close <case-id>",
		Short: "Close a case with an outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c, err := e.CloseCase(ctx, args[0], domain.CaseOutcome{
					Type:    domain.OutcomeType(outcome),
					Details: details,
				}, staffName(e), viper.GetBool("force"))
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "outcome (engaged, declined, referred_on, no_contact, not_eligible, other)")
	cmd.Flags().StringVar(&details, "details", "", "outcome details")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func caseDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <case-id>",
		Short: "Delete a case permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.DeleteCase(ctx, args[0], staffName(e))
			})
		},
	}
}

func caseClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every case and draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				n, err := e.ClearAll(ctx, staffName(e))
				if err != nil {
					return err
				}
				fmt.Printf("deleted %d cases\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Caseload summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, err := e.CaseStats(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(stats)
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all cases as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				cases, err := e.ListCases(ctx, repo.CaseFilters{})
				if err != nil {
					return err
				}
				var data []byte
				switch format {
				case "csv":
					data, err = export.CSV(cases)
				case "json", "":
					data, err = export.JSON(cases)
				default:
					return fmt.Errorf("unknown format %q", format)
				}
				if err != nil {
					return err
				}
				if out == "" {
					fmt.Println(string(data))
					return nil
				}
				return os.WriteFile(out, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "export format (json, csv)")
	cmd.Flags().StringVar(&out, "out", "", "write to file instead of stdout")
	return cmd
}

func importCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import cases from a JSON export",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				cases, err := export.ParseJSON(data)
				if err != nil {
					return err
				}
				n, err := e.ImportCases(ctx, cases, staffName(e))
				if err != nil {
					return err
				}
				fmt.Printf("imported %d cases\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON export file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the intake form schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("json") {
				out := []map[string]any{}
				for _, s := range schema.Sections() {
					fields := []map[string]any{}
					for _, f := range schema.FieldsFor(s.ID, schema.Fields()) {
						fields = append(fields, map[string]any{
							"id":       f.ID,
							"label":    f.Label,
							"type":     f.Type,
							"required": f.Required || f.RequiredWhen != nil,
						})
					}
					out = append(out, map[string]any{
						"id":     s.ID,
						"title":  s.Title,
						"fields": fields,
					})
				}
				return printJSON(out)
			}
			for _, s := range schema.Sections() {
				fmt.Printf("%s: %s\n", s.ID, s.Title)
				for _, f := range schema.FieldsFor(s.ID, schema.Fields()) {
					req := ""
					if f.Required || f.RequiredWhen != nil {
						req = " (required)"
					}
					fmt.Printf("  %-34s %s%s\n", f.ID, f.Type, req)
				}
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Manage workspace config"}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default caseflow.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			operator := viper.GetString("staff")
			if operator == "" {
				operator = os.Getenv("USER")
			}
			if operator == "" {
				operator = "local-user"
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(operator)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the active config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	})
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Inspect the event log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, caseID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, evtType, caseID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&caseID, "case", "", "case id filter")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.Open(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer ws.Close()
			if addr == "" {
				addr = ws.Config.Server.Addr
			}
			if basePath == "" {
				basePath = ws.Config.Server.BasePath
			}
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("CASEFLOW_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("CASEFLOW_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: ws.Engine, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving CaseFlow API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (defaults to config)")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	ws, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws.Engine)
}

func staffName(e engine.Engine) string {
	if s := viper.GetString("staff"); s != "" {
		return s
	}
	if e.Config != nil && e.Config.Operator.Name != "" {
		return e.Config.Operator.Name
	}
	return "local-user"
}

func readAnswers(ctx context.Context, e engine.Engine, answersFile, draftID string) (schema.Answers, error) {
	if answersFile != "" {
		return readAnswersFile(answersFile)
	}
	if draftID != "" {
		d, err := e.GetDraft(ctx, draftID)
		if err != nil {
			return nil, err
		}
		return d.Answers, nil
	}
	return nil, fmt.Errorf("--answers-file or --draft required")
}

func readAnswersFile(path string) (schema.Answers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var answers schema.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return answers, nil
}

func printValidationErrors(errs validate.Errors) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Field", "Error"})
	for id, msg := range errs {
		tw.AppendRow(table.Row{id, msg})
	}
	tw.Render()
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
