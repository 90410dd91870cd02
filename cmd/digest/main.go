package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	digest "github.com/edoardosensi/doe-ai-digest"
	"github.com/edoardosensi/doe-ai-digest/internal/storage"
)

var (
	configPath string
	cfg        *storage.Config
)

func main() {
	godotenv.Load() // best effort; real env always wins

	rootCmd := &cobra.Command{
		Use:   "digest",
		Short: "AI-personalized RSS news digest",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(
		fetchCmd(),
		recommendCmd(),
		profileCmd(),
		sectionsCmd(),
		feedsCmd(),
		usersCmd(),
		tokenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "digest: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	cfg = storage.DefaultConfig()

	path := configPath
	if path == "" {
		path = "./config/config.yaml"
		if _, err := os.Stat(path); err != nil {
			return nil // no config file, defaults apply
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func newEngine() (*digest.Engine, error) {
	return digest.NewEngine(digest.EngineConfig{
		DBPath:          cfg.Database.Path,
		ReasonerBackend: cfg.Reasoner.Backend,
		GatewayBaseURL:  cfg.Gateway.BaseURL,
		GatewayAPIKey:   os.Getenv(cfg.Gateway.APIKeyEnv),
		GatewayModel:    cfg.Gateway.Model,
		OllamaBaseURL:   cfg.Ollama.BaseURL,
		OllamaModel:     cfg.Ollama.Model,
		ReasonerTimeout: time.Duration(cfg.Reasoner.TimeoutSeconds) * time.Second,
		MinClickHistory: cfg.Recommend.MinClickHistory,
		PerSection:      cfg.Recommend.PerSection,
	})
}

// resolveUser accepts either a numeric ID or a user name.
func resolveUser(engine *digest.Engine, arg string) (int64, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	id, err := engine.ResolveUser(arg)
	if err != nil {
		return 0, fmt.Errorf("unknown user %q", arg)
	}
	return id, nil
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch all feeds and store new articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := engine.FetchAllFeeds(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Fetched %d/%d feeds (%d errored), %d new articles\n",
				res.FeedsFetched, res.FeedsTotal, res.FeedsErrored, res.NewArticles)
			return nil
		},
	}
}

func recommendCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Run a recommendation cycle for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			uid, err := resolveUser(engine, user)
			if err != nil {
				return err
			}

			res, err := engine.Recommend(context.Background(), uid)
			if err != nil {
				return err
			}

			if res.Advisory != "" {
				fmt.Printf("(%s)\n\n", res.Advisory)
			}
			current := ""
			for _, a := range res.Articles {
				if a.Category != current {
					current = a.Category
					fmt.Printf("\n## %s\n", current)
				}
				fmt.Printf("- %s (%s)\n  %s\n", a.Title, a.Source, a.URL)
			}
			if res.UserProfile != "" {
				fmt.Printf("\nProfilo: %s\n", res.UserProfile)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "1", "user ID or name")
	return cmd
}

func profileCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit a user's interest profile",
	}
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "1", "user ID or name")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			uid, err := resolveUser(engine, user)
			if err != nil {
				return err
			}
			p, err := engine.GetProfile(uid)
			if err != nil {
				return err
			}
			if p.Text == "" {
				fmt.Println("(no profile yet)")
				return nil
			}
			owner := "AI-generated"
			if p.UserAuthored {
				owner = "user-edited"
			}
			fmt.Printf("%s\n\n[%s, updated %s]\n", p.Text, owner, p.UpdatedAt.Format("2006-01-02"))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <text>",
		Short: "Overwrite the profile; the engine will obey it verbatim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			uid, err := resolveUser(engine, user)
			if err != nil {
				return err
			}
			return engine.SetProfile(uid, args[0])
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear the profile, reverting to behavior-driven recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			uid, err := resolveUser(engine, user)
			if err != nil {
				return err
			}
			return engine.SetProfile(uid, "")
		},
	}

	cmd.AddCommand(show, set, clear)
	return cmd
}

func sectionsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "sections",
		Short: "Show or toggle news sections",
	}
	cmd.PersistentFlags().StringVarP(&user, "user", "u", "1", "user ID or name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog sections and their enabled state",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			uid, err := resolveUser(engine, user)
			if err != nil {
				return err
			}
			sections, err := engine.Sections(uid)
			if err != nil {
				return err
			}
			for _, s := range sections {
				mark := " "
				if s.Enabled {
					mark = "x"
				}
				fmt.Printf("[%s] %s\n", mark, s.Name)
			}
			return nil
		},
	}

	toggle := func(use string, enabled bool) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <section>",
			Short: use + " a section",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				engine, err := newEngine()
				if err != nil {
					return err
				}
				defer engine.Close()

				uid, err := resolveUser(engine, user)
				if err != nil {
					return err
				}
				return engine.SetSectionEnabled(uid, args[0], enabled)
			},
		}
	}

	cmd.AddCommand(list, toggle("enable", true), toggle("disable", false))
	return cmd
}

func feedsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "Manage the feed catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List catalog feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			feeds, err := engine.ListFeeds()
			if err != nil {
				return err
			}
			for _, f := range feeds {
				status := "ok"
				if f.LastError != "" {
					status = "error: " + f.LastError
				}
				fmt.Printf("%d\t%s\t%s\t%s\n", f.ID, f.Source, f.URL, status)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <url> <source>",
		Short: "Add a feed to the catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			id, err := engine.AddFeed(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Added feed %q (id %d)\n", args[1], id)
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a feed from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid feed ID %q", args[0])
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			return engine.RemoveFeed(id)
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			id, err := engine.CreateUser(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created user %q (id %d)\n", args[0], id)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			users, err := engine.ListUsers()
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%d\t%s\n", u.ID, u.Name)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func tokenCmd() *cobra.Command {
	var user string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the web API",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv(cfg.Web.JWTSecretEnv)
			if secret == "" {
				return fmt.Errorf("%s is not set", cfg.Web.JWTSecretEnv)
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			uid, err := resolveUser(engine, user)
			if err != nil {
				return err
			}

			now := time.Now()
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
				Subject:   strconv.FormatInt(uid, 10),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			})
			signed, err := token.SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "1", "user ID or name")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return cmd
}
