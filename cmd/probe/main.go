// Command probe pulls the configured item source once and prints what it
// offers, grouped by planet. It reads the same .cwp.yaml and CWP_* settings
// as cwp.
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/robby/cwp/internal/config"
	"github.com/robby/cwp/internal/domain"
	"github.com/robby/cwp/internal/source"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	v := viper.New()
	v.SetConfigName(".cwp")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("CWP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	cfg, err := config.Load(v)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	src := source.Open(source.OpenOptions{
		Items:        cfg.Items,
		URL:          cfg.Source.URL,
		TokenEnv:     cfg.Source.TokenEnv,
		TokenCommand: strings.Fields(cfg.Source.TokenCommand),
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if r, ok := src.(source.Refresher); ok {
		start := time.Now()
		if err := r.Refresh(ctx); err != nil {
			log.Fatal().Err(err).Msg("pulling item source")
		}
		log.Info().Dur("took", time.Since(start)).Msg("pulled item source")
	}

	ids := src.IDs()
	fmt.Printf("Items (%d):\n", len(ids))

	byPlanet := make(map[string][]domain.Item)
	states := make(map[domain.State]int)
	envelopes := 0
	for _, id := range ids {
		item, ok := src.Get(id)
		if !ok {
			continue
		}
		planet := item.Planet
		if planet == "" {
			planet = "(no planet)"
		}
		byPlanet[planet] = append(byPlanet[planet], item)
		states[item.State]++
		if item.Category == domain.CategoryAltitudeEnvelope {
			envelopes++
		}
	}

	planets := make([]string, 0, len(byPlanet))
	for p := range byPlanet {
		planets = append(planets, p)
	}
	slices.Sort(planets)

	now := time.Now()
	for _, p := range planets {
		fmt.Printf("\n  %s (%d)\n", p, len(byPlanet[p]))
		for _, item := range byPlanet[p] {
			left := "no deadline"
			if r := item.Remaining(now); r != domain.NoExpiry {
				left = r.Round(time.Minute).String()
			}
			fmt.Printf("    %s  %-32s rank=%d reward=%.0f %s %s\n",
				item.ID.String()[:8], item.Title, item.Difficulty, item.Reward, item.State, left)
		}
	}

	fmt.Printf("\nStates: active=%d completed=%d failed=%d\n",
		states[domain.StateActive], states[domain.StateCompleted], states[domain.StateFailed])
	fmt.Printf("Altitude envelope items: %d\n", envelopes)
}
