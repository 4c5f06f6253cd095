package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	_ "github.com/lib/pq"

	"github.com/quizzit/quizzit/internal/dbconfig"
	"github.com/quizzit/quizzit/internal/question"
	"github.com/quizzit/quizzit/internal/quiz"
	"github.com/quizzit/quizzit/internal/sqlutil"
)

func main() {
	path := "questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var questions []quiz.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := question.NewRepository(db, 0)

	// 3) Insert in one transaction and count
	var inserted int
	err = sqlutil.Run(context.Background(), db, func(tx *sql.Tx) error {
		for _, q := range questions {
			if q.Prompt == "" || q.Answer == "" {
				fmt.Fprintf(os.Stderr, "skipping question without prompt or answer: %q\n", q.Prompt)
				continue
			}
			if err := repo.Insert(context.Background(), tx, q); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. total=%d inserted=%d\n", len(questions), inserted)
}
