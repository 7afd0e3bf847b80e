// NaamJaap — a devotional chanting companion for the terminal.
//
// Usage:
//
//	naamjaap [-verbose] [-quiet]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/maheshwarip/naamjaap/internal/chants"
	"github.com/maheshwarip/naamjaap/internal/conversation"
	"github.com/maheshwarip/naamjaap/internal/display"
	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/engine"
	"github.com/maheshwarip/naamjaap/internal/gpt"
	"github.com/maheshwarip/naamjaap/internal/logger"
	"github.com/maheshwarip/naamjaap/internal/speech"
	"github.com/maheshwarip/naamjaap/internal/storage"
	"github.com/maheshwarip/naamjaap/internal/tally"
	"github.com/maheshwarip/naamjaap/internal/timer"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".naamjaap-logs/naamjaap.log", "file to write logs to (use \"stderr\" to log to console)")
	dbPath := flag.String("db", ".naamjaap/naamjaap.db", "SQLite database path (empty for in-memory, nothing persists)")
	userID := flag.String("user", "local", "user id the counter and stats are scoped to")
	chantsPath := flag.String("chants", "chants.toml", "chant catalog file (falls back to built-in chants)")
	noSpeech := flag.Bool("no-speech", false, "disable audio output entirely")
	diskCache := flag.Bool("disk-cache", true, "persist TTS audio cache to disk (reads from disk even when false)")
	cacheDir := flag.String("cache-dir", ".naamjaap-cache", "directory for persistent TTS audio cache")
	noAI := flag.Bool("no-ai", false, "disable AI voice suggestions even if GPT keys are set")
	whisperBin := flag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "bin/ggml-small.bin", "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 6, "seconds per voice recording")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the REPL stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't spam
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence. SQLite by default; in-memory when -db is empty or
	// the file cannot be opened.
	var (
		counterStore domain.CounterStore
		dailyStore   domain.DailyStatStore
		historyStore domain.HistoryStore
	)
	if *dbPath != "" {
		db, err := storage.OpenSQLite(*dbPath, *userID, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open %s: %v (counts will not persist)\n", *dbPath, err)
		} else {
			defer db.Close()
			counterStore, dailyStore, historyStore = db, db, db
		}
	}
	if counterStore == nil {
		mem := storage.NewMemoryStore(log)
		counterStore, dailyStore, historyStore = mem, mem, mem
	}

	counter := tally.NewCounter(counterStore, dailyStore, log)
	if err := counter.Load(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
		log.Warn("loading saved tally: %v", err)
	}

	clock := timer.NewClock(log)

	catalog, err := chants.Load(*chantsPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading chant catalog: %v\n", err)
		os.Exit(1)
	}

	// The engine does not exist yet when the UI is built, so the status
	// closure guards against the brief nil window.
	var eng *engine.Engine
	ui := display.NewUI(func() display.Status {
		if eng == nil {
			return display.Status{}
		}
		session, t := eng.Snapshot()
		return display.Status{
			ChantText: session.ChantText,
			Count:     t.Count,
			MalaCount: t.MalaCount,
			TotalJapa: t.TotalJapa(),
			Today:     counter.Today(),
			Elapsed:   timer.FormatElapsed(clock.Elapsed()),
			Mode:      session.Mode,
			Playing:   session.Active,
		}
	})

	notifier := conversation.NewCLINotifier(log, ui.Printf)
	parser := conversation.NewKeywordParser(log)

	app := &cliApp{
		parser:   parser,
		notifier: notifier,
		counter:  counter,
		clock:    clock,
		catalog:  catalog,
		history:  historyStore,
		silent:   speech.NewSilent(log),
		log:      log,
		ui:       ui,
	}

	// Audio output. The clip looper only needs a local audio device;
	// synthesis additionally needs TTS service credentials.
	if !*noSpeech {
		player, err := speech.NewPlayer(log)
		if err != nil {
			log.Error("audio player init failed, running silent: %v", err)
		} else {
			app.looper = speech.NewClipLooper(player, log)

			speechKey := os.Getenv(speech.EnvSpeechKey)
			speechRegion := os.Getenv(speech.EnvSpeechRegion)
			if speechKey != "" && speechRegion != "" {
				tts := speech.NewTTSClient(speechKey, speechRegion, log)
				app.synth = speech.NewSynth(tts, player,
					domain.VoiceConfig{VoiceName: speech.DefaultVoice, Lang: speech.DefaultLang},
					log,
					speech.WithCacheDir(*cacheDir),
					speech.WithDiskWrite(*diskCache),
				)
				log.Info("TTS enabled (voice=%s, region=%s)", speech.DefaultVoice, speechRegion)
			} else {
				log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvSpeechKey, speech.EnvSpeechRegion)
			}
		}
	}

	// AI voice suggestions.
	gptKey := os.Getenv("GPT_CHAT_KEY")
	gptEndpoint := os.Getenv("GPT_CHAT_ENDPOINT")
	if gptKey != "" && gptEndpoint != "" && !*noAI {
		app.suggester = gpt.NewSuggester(gpt.NewClient(gptEndpoint, gptKey, log), log)
		log.Info("AI voice suggestions enabled")
	} else if !*noAI {
		log.Info("AI disabled: set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT env vars to enable")
	}

	// Voice recording. Built lazily only if the Whisper model exists.
	if _, err := os.Stat(*whisperModel); err == nil {
		app.recorder = speech.NewRecorder(*whisperBin, *whisperModel, log,
			speech.WithRecordDuration(time.Duration(*recordSecs)*time.Second),
		)
		log.Info("voice recording enabled (bin=%s, model=%s, %ds)", *whisperBin, *whisperModel, *recordSecs)
	}

	// Default chant: first catalog entry.
	chant, err := catalog.ByIndex(1)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: chant catalog is empty")
		os.Exit(1)
	}
	sel := chant.Selection()
	session := domain.ChantSession{
		ChantText:   chant.Text,
		Audio:       sel,
		SpeedFactor: 50,
		Mode:        domain.ModeManual,
	}

	eng = engine.New(session, app.sourceFor(sel), counter, clock, log,
		engine.WithNotifier(notifier),
		engine.WithHistory(historyStore),
	)
	app.eng = eng

	fmt.Println(display.RenderBanner())
	fmt.Println(display.BannerStyle.Render("  Press Enter to count a jaap. Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	// Run app logic in a background goroutine.
	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal — blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()

	// Last coalesced counter write may still be in flight.
	counter.Sync(2 * time.Second)
}

type cliApp struct {
	eng       *engine.Engine
	parser    domain.IntentParser
	notifier  domain.Notifier
	counter   *tally.Counter
	clock     *timer.Clock
	catalog   *chants.Catalog
	history   domain.HistoryStore
	synth     *speech.Synth      // nil when TTS is unavailable
	looper    *speech.ClipLooper // nil when no audio device
	silent    *speech.Silent
	recorder  *speech.Recorder // nil when no Whisper model
	suggester *gpt.Suggester   // nil when AI is disabled
	log       *logger.Logger
	ui        *display.UI
}

// sourceFor resolves an audio selection to a usable utterance source,
// falling back to the silent timed source when the preferred backend
// is unavailable. The cadence always has something to pace against.
func (a *cliApp) sourceFor(sel domain.AudioSelection) domain.UtteranceSource {
	switch sel.Kind {
	case domain.AudioClip:
		if a.looper == nil {
			a.log.Warn("no audio device, clip %s falls back to silent pacing", sel.ClipPath)
			return a.silent
		}
		if err := a.looper.Load(sel.ClipPath); err != nil {
			a.log.Error("loading clip %s: %v", sel.ClipPath, err)
			a.ui.PrintUrgent(fmt.Sprintf("Could not load audio clip %s: %v", sel.ClipPath, err))
			return a.silent
		}
		return a.looper
	default:
		if a.synth == nil {
			return a.silent
		}
		a.synth.SetVoice(sel.Voice)
		return a.synth
	}
}

// prefetchChant pre-warms the TTS cache for the current chant at the
// current rate. Non-blocking; no-op without synthesis.
func (a *cliApp) prefetchChant(ctx context.Context) {
	if a.synth == nil {
		return
	}
	session, _ := a.eng.Snapshot()
	if session.Audio.Kind != domain.AudioSpeech || session.ChantText == "" {
		return
	}
	a.synth.Prefetch(ctx, session.Rate(), session.ChantText)
}

func (a *cliApp) run(ctx context.Context) {
	session, _ := a.eng.Snapshot()
	a.ui.PrintChant(session.ChantText)
	a.ui.PrintHint("Mode: manual. Enter taps once, 'auto' then 'start' chants for you.")
	a.ui.Println("")
	a.prefetchChant(ctx)

	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		}

		intent, err := a.parser.Parse(ctx, input)
		if err != nil {
			a.log.Error("parsing input: %v", err)
			continue
		}

		a.log.Debug("intent: %s (payload=%q)", intent.Type, intent.Payload)
		if done := a.handleIntent(ctx, intent); done {
			return
		}
	}
}

// handleIntent dispatches one parsed intent. Returns true on quit.
func (a *cliApp) handleIntent(ctx context.Context, intent *domain.Intent) bool {
	switch intent.Type {
	case domain.IntentTap:
		a.tap()
	case domain.IntentStart:
		a.start(ctx)
	case domain.IntentStop:
		a.eng.Stop()
		a.ui.PrintInfo("Paused.")
	case domain.IntentSetMode:
		a.setMode(intent.Payload)
	case domain.IntentSetSpeed:
		a.setSpeed(intent.Payload)
	case domain.IntentListChants:
		a.showChants()
	case domain.IntentSelectChant:
		a.selectChant(ctx, intent.Payload)
	case domain.IntentSetChantText:
		a.setChantText(ctx, intent.Payload)
	case domain.IntentSuggestVoice:
		a.suggestVoice(ctx, intent.Payload)
	case domain.IntentRecord:
		a.record(ctx)
	case domain.IntentHistory:
		a.showHistory(ctx)
	case domain.IntentStatus:
		a.status()
	case domain.IntentSave:
		a.saveSession(ctx)
	case domain.IntentHelp:
		a.showHelp()
	case domain.IntentQuit:
		a.quit(ctx)
		return true
	case domain.IntentUnknown:
		a.ui.PrintHint(fmt.Sprintf("Didn't catch %q — type 'help' for commands.", intent.Payload))
	}
	return false
}

func (a *cliApp) tap() {
	session, _ := a.eng.Snapshot()
	if session.Mode == domain.ModeAuto {
		a.ui.PrintHint("Auto mode counts on its own. 'manual' to switch back to tapping.")
		return
	}
	a.eng.Tap()
}

func (a *cliApp) start(ctx context.Context) {
	session, _ := a.eng.Snapshot()
	if session.Mode != domain.ModeAuto {
		a.ui.PrintHint("Switch to auto mode first ('auto'), then 'start'.")
		return
	}
	if session.Active {
		a.ui.PrintHint("Already chanting.")
		return
	}
	a.prefetchChant(ctx)
	a.eng.Start()
	a.ui.PrintChant(session.ChantText)
	a.ui.PrintHint("Chanting on its own. 'stop' to pause, 'speed N' to adjust.")
}

func (a *cliApp) setMode(payload string) {
	switch {
	case strings.Contains(payload, "auto"):
		a.eng.SetMode(domain.ModeAuto)
		a.ui.PrintInfo("Auto mode. Type 'start' to begin the cadence.")
	case strings.Contains(payload, "manual"):
		a.eng.SetMode(domain.ModeManual)
		a.ui.PrintInfo("Manual mode. Press Enter to count each jaap.")
	default:
		a.ui.PrintHint("Modes: 'auto' or 'manual'.")
	}
}

func (a *cliApp) setSpeed(payload string) {
	factor, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		a.ui.PrintHint("Usage: speed N (0 = slowest, 100 = fastest).")
		return
	}
	a.eng.SetSpeed(factor)
	session, _ := a.eng.Snapshot()
	a.ui.PrintInfo(fmt.Sprintf("Speed %d (rate %.2fx). Applies from the next repetition.", session.SpeedFactor, session.Rate()))
}

func (a *cliApp) showChants() {
	a.ui.PrintInfo("Chants:")
	a.ui.Println("")
	for i, c := range a.catalog.All() {
		label := fmt.Sprintf("[%d] %s", i+1, c.Text)
		if c.ClipPath != "" {
			label += "  (recorded audio)"
		}
		a.ui.PrintChant(label)
		if c.Description != "" {
			a.ui.PrintHint("    " + c.Description)
		}
	}
	a.ui.Println("")
	a.ui.PrintHint("Pick one by number.")
}

func (a *cliApp) selectChant(ctx context.Context, payload string) {
	idx, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil {
		a.ui.PrintHint("Pick a chant by number — 'list' shows them.")
		return
	}
	chant, err := a.catalog.ByIndex(idx)
	if err != nil {
		a.ui.PrintHint(fmt.Sprintf("No chant %d — 'list' shows %d chants.", idx, a.catalog.Len()))
		return
	}

	sel := chant.Selection()
	a.eng.SetChantText(chant.Text)
	a.eng.SetAudio(sel, a.sourceFor(sel))
	a.ui.PrintChant(chant.Text)
	if chant.Description != "" {
		a.ui.PrintHint(chant.Description)
	}
	a.prefetchChant(ctx)
}

func (a *cliApp) setChantText(ctx context.Context, text string) {
	voice := domain.VoiceConfig{VoiceName: speech.DefaultVoice, Lang: speech.DefaultLang}
	if a.synth != nil {
		voice = a.synth.Voice()
	}
	sel := domain.AudioSelection{Kind: domain.AudioSpeech, Voice: voice}
	a.eng.SetChantText(text)
	a.eng.SetAudio(sel, a.sourceFor(sel))
	a.ui.PrintChant(text)
	a.prefetchChant(ctx)
}

func (a *cliApp) suggestVoice(ctx context.Context, style string) {
	if a.suggester == nil {
		a.ui.PrintHint("AI voice suggestions are off. Set GPT_CHAT_KEY and GPT_CHAT_ENDPOINT to enable.")
		return
	}
	if a.synth == nil {
		a.ui.PrintHint("Speech synthesis is off, so a voice change would not be audible.")
		return
	}

	a.ui.PrintHint("Thinking about a matching voice...")
	suggestion, err := a.suggester.SuggestVoice(ctx, style)
	if err != nil {
		if errors.Is(err, domain.ErrNoVoice) {
			if suggestion.FeasibilityReasoning != "" {
				a.ui.PrintInfo(suggestion.FeasibilityReasoning)
			}
			a.ui.PrintHint("Keeping the current voice.")
			return
		}
		a.log.Error("voice suggestion failed: %v", err)
		a.ui.PrintUrgent("Voice suggestion failed. Keeping the current voice.")
		return
	}

	voice := suggestion.Voice()
	sel := domain.AudioSelection{Kind: domain.AudioSpeech, Voice: voice}
	a.eng.SetAudio(sel, a.sourceFor(sel))
	if suggestion.FeasibilityReasoning != "" {
		a.ui.PrintInfo(suggestion.FeasibilityReasoning)
	}
	a.ui.PrintInfo(fmt.Sprintf("Voice set to %s (%s).", voice.VoiceName, voice.Lang))
	a.prefetchChant(ctx)
}

func (a *cliApp) record(ctx context.Context) {
	if a.recorder == nil {
		a.ui.PrintHint("Recording needs a Whisper model — see -whisper-model.")
		return
	}

	a.eng.Stop()
	a.ui.PrintInfo(fmt.Sprintf("Recording for %s — chant now.", a.recorder.Duration()))

	rec, err := a.recorder.Record(ctx)
	if err != nil {
		a.log.Error("recording failed: %v", err)
		a.ui.PrintUrgent(fmt.Sprintf("Recording failed: %v", err))
		return
	}

	if rec.Transcript != "" {
		a.eng.SetChantText(rec.Transcript)
		a.ui.PrintChant(rec.Transcript)
	} else {
		a.ui.PrintHint("Heard nothing usable — keeping the current chant text.")
	}

	if rec.WavPath != "" && a.looper != nil {
		sel := domain.AudioSelection{Kind: domain.AudioClip, ClipPath: rec.WavPath}
		a.eng.SetAudio(sel, a.sourceFor(sel))
		a.ui.PrintInfo("Your recording will loop as the chant audio.")
	}
}

func (a *cliApp) showHistory(ctx context.Context) {
	records, err := a.history.ListSessions(ctx)
	if err != nil {
		a.ui.PrintUrgent(fmt.Sprintf("Error loading history: %v", err))
		return
	}
	if len(records) == 0 {
		a.ui.PrintHint("No saved sessions yet. 'save' records the current one.")
		return
	}

	a.ui.PrintInfo("Recent sessions:")
	const max = 10
	for i, rec := range records {
		if i >= max {
			a.ui.PrintHint(fmt.Sprintf("... and %d more", len(records)-max))
			break
		}
		dur := rec.EndTime.Sub(rec.StartTime).Round(time.Second)
		a.ui.PrintInfo(fmt.Sprintf("  %s  %s — %d japa, %d malas (%s)",
			rec.StartTime.Format("Jan 02 15:04"), dur, rec.TotalCount, rec.MalaCount, rec.ChantText))
	}
}

func (a *cliApp) status() {
	session, t := a.eng.Snapshot()

	a.ui.PrintChant(session.ChantText)
	a.ui.PrintInfo(fmt.Sprintf("Count:   %d/%d in this mala", t.Count, domain.MalaSize))
	a.ui.PrintInfo(fmt.Sprintf("Malas:   %d (%d japa lifetime)", t.MalaCount, t.TotalJapa()))
	a.ui.PrintInfo(fmt.Sprintf("Today:   %d japa", a.counter.Today()))
	a.ui.PrintInfo(fmt.Sprintf("Session: %d japa, %d malas, %s elapsed",
		session.SessionCount, session.SessionMalas, timer.FormatElapsed(a.clock.Elapsed())))
	if session.Active {
		a.ui.PrintInfo(fmt.Sprintf("Mode:    %s (chanting, rate %.2fx)", session.Mode, session.Rate()))
	} else {
		a.ui.PrintInfo(fmt.Sprintf("Mode:    %s", session.Mode))
	}
	a.ui.PrintHint(fmt.Sprintf("Audio:   %s", session.Audio.Kind))
}

func (a *cliApp) saveSession(ctx context.Context) {
	rec, err := a.eng.SaveSession(ctx)
	if err != nil {
		a.log.Error("saving session: %v", err)
		a.ui.PrintUrgent(fmt.Sprintf("Could not save the session: %v", err))
		return
	}
	if rec.TotalCount == 0 {
		a.ui.PrintHint("Nothing chanted yet — session not recorded.")
		return
	}
	a.ui.PrintCelebration(fmt.Sprintf("Session saved: %d japa, %d malas in %s.",
		rec.TotalCount, rec.MalaCount, rec.EndTime.Sub(rec.StartTime).Round(time.Second)))
}

func (a *cliApp) quit(ctx context.Context) {
	// An unsaved session with counts is recorded on the way out.
	rec, err := a.eng.SaveSession(ctx)
	if err != nil {
		a.log.Error("saving session on quit: %v", err)
	} else if rec.TotalCount > 0 {
		a.ui.PrintCelebration(fmt.Sprintf("Session saved: %d japa, %d malas.", rec.TotalCount, rec.MalaCount))
	}
	a.ui.PrintInfo("Radhe Radhe. 🙏")
	// Brief pause so the farewell lands before the terminal resets.
	time.Sleep(200 * time.Millisecond)
}

func (a *cliApp) showHelp() {
	a.ui.PrintInfo("Commands:")
	a.ui.PrintInfo("  <Enter> / tap    Count one repetition (manual mode)")
	a.ui.PrintInfo("  auto / manual    Switch counting mode")
	a.ui.PrintInfo("  start            Begin auto chanting")
	a.ui.PrintInfo("  stop             Pause auto chanting")
	a.ui.PrintInfo("  speed N          Chanting speed, 0 (slow) to 100 (fast)")
	a.ui.PrintInfo("  list             Show available chants")
	a.ui.PrintInfo("  1, 2, 3...       Select a chant by number")
	a.ui.PrintInfo("  chant <text>     Chant a custom phrase")
	a.ui.PrintInfo("  record           Record your own voice as the chant audio")
	a.ui.PrintInfo("  status / where   Show counts and session progress")
	a.ui.PrintInfo("  history          Show saved sessions")
	a.ui.PrintInfo("  save             Save the session and reset its counters")
	a.ui.PrintInfo("  help             Show this message")
	a.ui.PrintInfo("  quit / exit      Save and exit")
	a.ui.Println("")
	a.ui.PrintInfo("AI (requires GPT_CHAT_KEY + GPT_CHAT_ENDPOINT):")
	a.ui.PrintInfo("  voice <style>    Pick a voice matching a style, e.g. \"voice a calm elderly saint\"")
}
