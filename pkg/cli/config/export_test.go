package config

import "time"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, sqlitePath string) *Repository {
	return &Repository{
		backend:    backend,
		sqlitePath: sqlitePath,
	}
}

// NewFetcherForTest creates a Fetcher config for testing purposes
func NewFetcherForTest(sourcesFile string, delayMin, delayMax time.Duration, parallelism int) *Fetcher {
	return &Fetcher{
		sourcesFile:  sourcesFile,
		delayMin:     delayMin,
		delayMax:     delayMax,
		parallelism:  parallelism,
		contentLimit: 2000,
	}
}

// NewAdvisorForTest creates an Advisor config for testing purposes
func NewAdvisorForTest(backend, ollamaURL string, modelPrefs ...string) *Advisor {
	return &Advisor{
		backend:       backend,
		ollamaURL:     ollamaURL,
		modelPrefs:    modelPrefs,
		fallbackModel: "tinyllama",
	}
}
