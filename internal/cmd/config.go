package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quizzit/quizzit/internal/quiz"
)

type Config struct {
	Quiz struct {
		BasePoints int `yaml:"base_points"`
		Steps      []struct {
			AfterSeconds   int     `yaml:"after_seconds"`
			RevealFraction float64 `yaml:"reveal_fraction"`
			Points         int     `yaml:"points"`
		} `yaml:"steps"`
		TimeoutSeconds      int               `yaml:"timeout_seconds"`
		DelaySeconds        int               `yaml:"delay_seconds"`
		MuteWindowSeconds   int               `yaml:"mute_window_seconds"`
		MaxHintsPerRound    int               `yaml:"max_hints_per_round"`
		QuestionsPerRound   int               `yaml:"questions_per_round"`
		FancyCountdown      bool              `yaml:"fancy_countdown"`
		TeamNames           map[string]string `yaml:"team_names"`
		AdminParticipantIDs []string          `yaml:"admin_participant_ids"`
	} `yaml:"quiz"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config
	if path == "" {
		return &config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// quizConfig translates the YAML file into the engine's configuration.
// Anything left at zero falls back to the engine defaults.
func quizConfig(config *Config) quiz.Config {
	cfg := quiz.Config{
		InterQuestionDelay: time.Duration(getEnvAsInt("QUIZ_DELAY_SECONDS", config.Quiz.DelaySeconds)) * time.Second,
		MuteWindow:         time.Duration(config.Quiz.MuteWindowSeconds) * time.Second,
		MaxHintsPerRound:   config.Quiz.MaxHintsPerRound,
		FancyCountdown:     config.Quiz.FancyCountdown,
	}

	if config.Quiz.BasePoints > 0 || len(config.Quiz.Steps) > 0 {
		schedule := quiz.Schedule{
			BasePoints: config.Quiz.BasePoints,
			Timeout:    time.Duration(config.Quiz.TimeoutSeconds) * time.Second,
		}
		for _, step := range config.Quiz.Steps {
			schedule.Steps = append(schedule.Steps, quiz.DecayStep{
				After:          time.Duration(step.AfterSeconds) * time.Second,
				RevealFraction: step.RevealFraction,
				Points:         step.Points,
			})
		}
		cfg.Schedule = schedule
	}

	if len(config.Quiz.TeamNames) > 0 {
		names := map[quiz.TeamLabel]string{
			quiz.TeamA: getEnv("TEAM_NAME_A", config.Quiz.TeamNames["A"]),
			quiz.TeamB: getEnv("TEAM_NAME_B", config.Quiz.TeamNames["B"]),
		}
		cfg.TeamNames = names
	} else if os.Getenv("TEAM_NAME_A") != "" || os.Getenv("TEAM_NAME_B") != "" {
		cfg.TeamNames = map[quiz.TeamLabel]string{
			quiz.TeamA: getEnv("TEAM_NAME_A", "A"),
			quiz.TeamB: getEnv("TEAM_NAME_B", "B"),
		}
	}

	return cfg
}
