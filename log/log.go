package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	consoleLog     zerolog.Logger
	diagFile       *os.File
	transcribeFile *os.File
	logMu          sync.Mutex
	logReady       bool
	consoleReady   bool
	pid            int
	dir            string
)

// Metrics describes one finished transcription.
type Metrics struct {
	AudioS      float64
	SpeechS     float64
	Segments    int
	TotalTimeMs float64
	TTFBMs      float64
	UploadKB    float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: DICTATOR_LOG_PATH environment variable
	if envPath := os.Getenv("DICTATOR_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// SetConsole routes status lines to w. Passing nil silences the console,
// which the TUI does while it owns the terminal.
func SetConsole(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	if w == nil {
		consoleReady = false
		return
	}
	consoleLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
	consoleReady = true
}

// Init opens the diagnostics and transcription files in Dir and attaches
// console as the status writer.
func Init(console io.Writer) error {
	SetConsole(console)

	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcribePath := filepath.Join(dir, "transcribe_log.txt")
	transcribeFile, err = os.OpenFile(transcribePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	diagLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcribeFile != nil {
		transcribeFile.Close()
		transcribeFile = nil
	}
	logReady = false
	consoleReady = false
}

func emit(level zerolog.Level, msg string) {
	if logReady {
		diagLog.WithLevel(level).Msg(msg)
	}
	if consoleReady && level != zerolog.DebugLevel {
		consoleLog.WithLevel(level).Msg(msg)
	}
}

func Info(msg string) { emit(zerolog.InfoLevel, msg) }

func Infof(format string, args ...any) { emit(zerolog.InfoLevel, fmt.Sprintf(format, args...)) }

func Debugf(format string, args ...any) { emit(zerolog.DebugLevel, fmt.Sprintf(format, args...)) }

func Error(msg string) { emit(zerolog.ErrorLevel, msg) }

func Errorf(format string, args ...any) { emit(zerolog.ErrorLevel, fmt.Sprintf(format, args...)) }

func Warn(msg string) { emit(zerolog.WarnLevel, msg) }

func Warnf(format string, args ...any) { emit(zerolog.WarnLevel, fmt.Sprintf(format, args...)) }

func TranscriptionMetrics(m Metrics, engine string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("engine", engine).
		Float64("audio_s", m.AudioS).
		Float64("speech_s", m.SpeechS).
		Int("segments", m.Segments).
		Float64("total_ms", m.TotalTimeMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("upload_kb", m.UploadKB).
		Msg("transcription")
}

func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcribeFile.WriteString(line)
}

func SessionStart(id, engine, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("engine", engine).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(id, outcome string, frames int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", id).
		Str("outcome", outcome).
		Int("frames", frames).
		Msg("session_end")
}
