package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docpilot/src/core/rag"
	"docpilot/src/infrastructure/integrations/openai"
	"docpilot/src/storage/qdrant"
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score the pipeline against a question dataset",
	Long: `The evaluate command reads a JSONL file of questions, runs each through
retrieval and answer generation against the live collection, scores every
answer for faithfulness and relevancy, and prints the mean scores.`,
	Run: Evaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringP("input", "i", "", "Input JSONL file path")
	evaluateCmd.MarkFlagRequired("input")
	evaluateCmd.Flags().IntP("topk", "k", 0, "Passages to retrieve per question (default from config)")
}

type evalRecord struct {
	Question string `json:"question"`
}

func Evaluate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	inputPath, _ := cmd.Flags().GetString("input")
	topK, _ := cmd.Flags().GetInt("topk")

	upstreamTimeout, err := time.ParseDuration(viper.GetString("rag.upstream_timeout"))
	if err != nil {
		upstreamTimeout = 60 * time.Second
	}

	provider, err := openai.NewClient(openai.Config{
		APIKey:             viper.GetString("openai.api_key"),
		BaseURL:            viper.GetString("openai.base_url"),
		ChatModel:          viper.GetString("openai.chat_model"),
		EmbeddingModel:     viper.GetString("openai.embedding_model"),
		EmbeddingDimension: viper.GetInt("openai.embedding_dimension"),
		Timeout:            upstreamTimeout,
	})
	if err != nil {
		fmt.Printf("Failed to create model provider client: %v\n", err)
		return
	}

	store, err := qdrant.NewSDK(qdrant.Config{
		Host:       viper.GetString("qdrant.host"),
		Port:       viper.GetInt("qdrant.port"),
		APIKey:     viper.GetString("qdrant.api_key"),
		Collection: viper.GetString("qdrant.collection"),
		Dimension:  viper.GetInt("openai.embedding_dimension"),
		Timeout:    upstreamTimeout,
	})
	if err != nil {
		fmt.Printf("Failed to create vector store client: %v\n", err)
		return
	}
	defer store.Close()

	search := rag.NewSearchService(provider, store, viper.GetInt("rag.top_k"))
	answers := rag.NewAnswerService(provider)
	evaluator := rag.NewEvaluateService(provider)

	file, err := os.Open(inputPath)
	if err != nil {
		fmt.Printf("Failed to open input file: %v\n", err)
		return
	}
	defer file.Close()

	// First pass counts records so the bar has a total.
	var records []evalRecord
	scanner := bufio.NewScanner(file)
	const maxCapacity = 4 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec evalRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			fmt.Printf("Failed to parse dataset line: %v\n", err)
			continue
		}
		if rec.Question != "" {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading dataset: %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("No questions found in dataset")
		return
	}

	bar := progressbar.Default(int64(len(records)), "evaluating")

	var (
		faithSum, relSum float64
		scored, failed   int
	)
	for _, rec := range records {
		bar.Add(1)

		passages, err := search.Retrieve(ctx, rec.Question, topK)
		if err != nil {
			fmt.Printf("\nRetrieval failed for %q: %v\n", rec.Question, err)
			failed++
			continue
		}

		answer, err := answers.Answer(ctx, rec.Question, passages, false)
		if err != nil {
			fmt.Printf("\nGeneration failed for %q: %v\n", rec.Question, err)
			failed++
			continue
		}

		scores := evaluator.Evaluate(ctx, rec.Question, answer.Text, passages)
		if scores.Error != "" || scores.Faithfulness == nil || scores.AnswerRelevancy == nil {
			failed++
			continue
		}
		faithSum += *scores.Faithfulness
		relSum += *scores.AnswerRelevancy
		scored++
	}

	fmt.Printf("\nEvaluation Results:\n")
	fmt.Printf("Questions: %d scored, %d failed\n", scored, failed)
	if scored > 0 {
		fmt.Printf("Mean faithfulness:     %.3f\n", faithSum/float64(scored))
		fmt.Printf("Mean answer relevancy: %.3f\n", relSum/float64(scored))
	}
}
