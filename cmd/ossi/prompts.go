package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ossi-voice/ossi/internal/prompts"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Inspect and publish system prompts",
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the effective prompt catalog",
	Args:  cobra.NoArgs,
	RunE:  runPromptsList,
}

var promptsPushCmd = &cobra.Command{
	Use:   "push <file>...",
	Short: "Publish prompt files to the Redis prompt store",
	Long:  "Stores each file in the configured Redis hash, keyed by file name without extension.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPromptsPush,
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.AddCommand(promptsListCmd, promptsPushCmd)
}

func runPromptsList(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	catalog, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defaults := prompts.Defaults()
	var rows [][]string
	for _, name := range catalog.Names() {
		text := catalog.Get(name)
		origin := "custom"
		if d, ok := defaults[name]; ok {
			origin = "override"
			if strings.TrimSpace(d) == strings.TrimSpace(text) {
				origin = "default"
			}
		}
		rows = append(rows, []string{name, origin, strconv.Itoa(len(text)), firstLine(text)})
	}

	fmt.Println(renderTable(
		[]string{"Name", "Origin", "Chars", "First Line"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}

func runPromptsPush(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	if cfg.Prompts.RedisURL == "" {
		return fmt.Errorf("prompts.redis_url is not configured")
	}

	src, err := prompts.NewRedisSource(cfg.Prompts.RedisURL, cfg.Prompts.RedisKey)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := src.Put(ctx, name, strings.TrimSpace(string(data))); err != nil {
			return err
		}
		logger.Info("prompt published", "name", name, "source", src.Describe())
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:57] + "..."
	}
	return s
}
