package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/langquest/internal/catalog"
	"github.com/tatianab/langquest/internal/config"
	"github.com/tatianab/langquest/internal/engine"
	"github.com/tatianab/langquest/internal/models"
	"github.com/tatianab/langquest/internal/oracle"
	"github.com/tatianab/langquest/internal/store"
)

const (
	maxTurns = 10
	profile  = "simulated"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	catalogs, err := catalog.Builtin()
	if err != nil {
		log.Fatalf("Failed to load content: %v", err)
	}
	cat, ok := catalogs.Get(cfg.Language)
	if !ok {
		log.Fatalf("No content for language %q", cfg.Language)
	}

	// The narrator
	gemini, err := oracle.NewGemini(ctx, cfg.GeminiAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("Failed to create narrator: %v", err)
	}
	defer gemini.Close()

	st := store.NewMemoryStore()
	eng := engine.New(catalogs, st, gemini, gemini, engine.Options{OracleTimeout: cfg.OracleTimeout})

	// The player, a learner with a beginner's vocabulary
	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()
	playerModel := playerClient.GenerativeModel(cfg.Model)

	module := cat.Modules()[0]
	fmt.Printf("--- Starting %s / %s ---\n", cat.DisplayName, module.Name)
	view, err := eng.InitSession(ctx, profile, cat.Name, module.ID)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	fmt.Printf("%s\n\n", view.Narrative)

	var transcript []string
	for turn := 1; turn <= maxTurns; turn++ {
		fmt.Printf("--- Turn %d ---\n", turn)

		action := getPlayerAction(ctx, playerModel, cat.DisplayName, view, transcript)
		fmt.Printf("Player Action: %s\n", action)

		view, err = eng.PlayTurn(ctx, profile, cat.Name, action)
		if err != nil {
			if engine.Retryable(err) {
				fmt.Printf("Narrator unavailable (%v), retrying next turn\n", err)
				continue
			}
			fmt.Printf("Error processing turn: %v\n", err)
			break
		}
		fmt.Printf("Narrator: %s\n", view.Narrative)
		transcript = append(transcript, fmt.Sprintf("Player: %s\nNarrator: %s", action, view.Narrative))

		for _, q := range view.NewQuests {
			fmt.Printf("QUEST COMPLETE: %s (+%d)\n", q.Title, q.Points)
		}
		for _, b := range view.NewBadges {
			fmt.Printf("BADGE: %s\n", b.Name)
		}
		fmt.Printf("Location=%s Level=%d Points=%d Due=%d Inventory=%v\n\n",
			view.Location.Name, view.Level, view.Points, view.DueCount, itemNames(view.Inventory))
	}

	due, err := eng.ListDue(ctx, profile, cat.Name)
	if err != nil {
		log.Fatalf("Failed to list due words: %v", err)
	}
	fmt.Printf("--- Vocabulary: %d encountered, %d learning, %d known, %d due ---\n",
		due.Stats.Encountered, due.Stats.Learning, due.Stats.Known, due.Stats.Due)
}

func getPlayerAction(ctx context.Context, model *genai.GenerativeModel, language string, view *models.GameView, transcript []string) string {
	if len(transcript) > 4 {
		transcript = transcript[len(transcript)-4:]
	}
	var exits []string
	for _, e := range view.Location.Exits {
		exits = append(exits, e.Direction)
	}

	prompt := fmt.Sprintf(`You are a beginner learning %s by playing a text adventure.
Location: %s
Exits: %s
You see: %s
People here: %s
You carry: %s

Recent turns:
%s

What do you say or do next? Answer in simple %s, one short sentence. Return ONLY the sentence.`,
		language,
		view.Location.Name,
		strings.Join(exits, ", "),
		strings.Join(itemNames(view.Location.Objects), ", "),
		npcNames(view.Location.NPCs),
		strings.Join(itemNames(view.Inventory), ", "),
		strings.Join(transcript, "\n"),
		language,
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "Hola"
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "Hola"
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}

func itemNames(items []models.ItemView) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names
}

func npcNames(npcs []models.NPCView) string {
	names := make([]string, 0, len(npcs))
	for _, n := range npcs {
		names = append(names, n.Name)
	}
	return strings.Join(names, ", ")
}
