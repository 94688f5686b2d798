package stt

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	vosk "github.com/alphacep/vosk-api/go"
)

// voskEngine wraps the Kaldi-based vosk model. The model is read-only after
// load and safe to share across recognizers.
type voskEngine struct {
	model *vosk.VoskModel
}

func newVoskEngine(modelPath string) (*voskEngine, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("speech model not found at %s: %w", modelPath, err)
	}

	vosk.SetLogLevel(-1)

	log.Printf("Loading speech model from %s...", modelPath)
	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load speech model: %w", err)
	}
	log.Printf("Speech model loaded successfully")

	return &voskEngine{model: model}, nil
}

func (e *voskEngine) NewRecognizer(sampleRate float64) (Recognizer, error) {
	rec, err := vosk.NewRecognizer(e.model, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	rec.SetWords(1)
	return &voskRecognizer{rec: rec}, nil
}

type voskRecognizer struct {
	rec *vosk.VoskRecognizer
}

type voskResult struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

func (r *voskRecognizer) Accept(chunk []byte) (Result, error) {
	var raw string
	final := r.rec.AcceptWaveform(chunk) != 0
	if final {
		raw = r.rec.Result()
	} else {
		raw = r.rec.PartialResult()
	}

	var parsed voskResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{}, fmt.Errorf("failed to parse recognizer output: %w", err)
	}

	if final {
		return Result{Text: parsed.Text, Final: true}, nil
	}
	return Result{Partial: parsed.Partial}, nil
}

func (r *voskRecognizer) Close() {
	r.rec.Free()
}
