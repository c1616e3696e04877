package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"dictator/audio"
	"dictator/beep"
	"dictator/clipboard"
	"dictator/config"
	"dictator/dictation"
	"dictator/doctor"
	"dictator/hotkey"
	"dictator/log"
	"dictator/metrics"
	"dictator/presence"
	"dictator/shutdown"
	"dictator/transcriber"
	"dictator/transcriber/whisper"
	"dictator/tray"
	"dictator/typist"
	"dictator/vad"
)

var version = "dev"

type flags struct {
	config, device, hotkey, model, engine, lang, logPath, metrics string
	paste, noTray, tui, beep, setup, doctor, test, version       bool
	longPress                                                     time.Duration
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.config, "config", "", "YAML config file (default ~/.local_whisper_dictator/config.yaml if present)")
	flag.StringVar(&f.device, "device", "", "Use named microphone device")
	flag.StringVar(&f.hotkey, "hotkey", "", "Push-to-talk chord, e.g. ralt or ctrl+shift+space")
	flag.StringVar(&f.model, "model", "", "Whisper model name (tiny.en, base.en, small.en, ...)")
	flag.StringVar(&f.engine, "engine", "", "Transcription engine: whisper (local) or openai")
	flag.StringVar(&f.lang, "lang", "", "Language code for transcription. Empty = auto-detect")
	flag.StringVar(&f.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	flag.StringVar(&f.metrics, "metrics", "", "Serve /metrics and /debug/pprof on this address (e.g. localhost:9464)")
	flag.BoolVar(&f.paste, "paste", false, "Paste through the clipboard instead of typing each character")
	flag.BoolVar(&f.noTray, "notray", false, "Run without a tray icon")
	flag.BoolVar(&f.tui, "tui", false, "Run with terminal UI")
	flag.BoolVar(&f.beep, "beep", false, "Play a cue when recording starts and stops")
	flag.BoolVar(&f.setup, "setup", false, "Select microphone device (otherwise uses system default)")
	flag.BoolVar(&f.doctor, "doctor", false, "Run system diagnostics and exit")
	flag.BoolVar(&f.test, "test", false, "Test mode (headless, stdin-driven): dictator -test <wav-file>")
	flag.BoolVar(&f.version, "version", false, "Print version and exit")
	flag.DurationVar(&f.longPress, "longpress", 0, "Enable tap-to-toggle: presses shorter than this toggle recording (e.g. 350ms)")
	flag.Parse()
	return f
}

// apply copies every flag given on the command line over the config.
func (f *flags) apply(cfg *config.Config) {
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "device":
			cfg.Audio.Device = f.device
		case "hotkey":
			cfg.Hotkey.Keys = f.hotkey
		case "model":
			cfg.Model.Name = f.model
		case "engine":
			cfg.Model.Engine = f.engine
		case "lang":
			cfg.Model.Language = f.lang
		case "logpath":
			cfg.Log.Dir = f.logPath
		case "metrics":
			cfg.Metrics.Addr = f.metrics
		case "paste":
			cfg.Typing.Paste = f.paste
		case "notray":
			cfg.UI.Tray = !f.noTray
		case "tui":
			cfg.UI.TUI = f.tui
		case "beep":
			cfg.UI.Beep = f.beep
		case "longpress":
			cfg.Hotkey.LongPress = f.longPress
		}
	})
}

func fatalf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	log.Close()
	os.Exit(1)
}

// exit ends the process without draining in-flight transcription.
func exit(code int) {
	log.Info("exiting")
	log.Close()
	os.Exit(code)
}

func run() {
	f := parseFlags()
	if f.version {
		fmt.Printf("dictator %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Resolve(f.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if f.test {
		cfg.UI = config.UIConfig{}
	}

	logPath, err := log.ResolveDir(cfg.Log.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	var console io.Writer = os.Stderr
	if cfg.UI.TUI {
		console = io.Discard
	}
	if err := log.Init(console); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	keys, err := hotkey.ParseChord(cfg.Hotkey.Keys)
	if err != nil {
		fatalf("hotkey %q: %v", cfg.Hotkey.Keys, err)
	}
	label := hotkey.Display(keys)

	ctx := context.Background()
	engine, err := newEngine(ctx, cfg)
	if err != nil {
		fatalf("%v", err)
	}

	var actx audio.Context
	var fake *audio.FakeContext
	if f.test {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Usage: dictator -test <wav-file>")
			os.Exit(1)
		}
		fake, err = audio.NewFakeContext(flag.Arg(0), true)
		if err != nil {
			fatalf("loading WAV: %v", err)
		}
		actx = fake
	} else {
		actx, err = audio.NewContext()
		if err != nil {
			fatalf("initializing audio context: %v", err)
		}
	}
	defer actx.Close()

	device, err := pickDevice(actx, cfg, f.setup)
	if err != nil {
		fatalf("%v", err)
	}
	rec := audio.NewRecorder(actx, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   uint32(cfg.Audio.Channels),
		FrameSize:  cfg.Audio.FrameSize,
	}, device)
	log.Info("recording_device: " + rec.DeviceName())

	var ty dictation.Typist
	switch {
	case f.test:
		ty = stdoutTypist{}
	case cfg.Typing.Paste:
		if err := clipboard.Init(); err != nil {
			log.Warnf("paste init failed: %v", err)
		}
		ty = clipboard.NewPaster()
	default:
		inj, err := typist.NewInjector()
		if err != nil {
			fatalf("keyboard injection unavailable: %v", err)
		}
		ty = typist.New(inj, cfg.Typing.Delay)
	}

	if f.doctor {
		os.Exit(doctor.Run(doctor.Options{
			Hotkey:      func() (hotkey.Hotkey, error) { return hotkey.New(keys, cfg.Hotkey.Backend) },
			HotkeyLabel: label,
			Capture:     rec,
			SampleRate:  cfg.Audio.SampleRate,
			Transcriber: engine,
			Typist:      ty,
		}))
	}

	sinks := presence.Multi{presence.Console{}}
	var observers dictation.Observers
	if cfg.UI.Beep {
		beep.Init()
		sinks = append(sinks, beep.Sink{})
		observers = append(observers, beep.Sink{})
	}
	if cfg.Metrics.Addr != "" {
		m := metrics.New(nil)
		sinks = append(sinks, m)
		observers = append(observers, m)
		serveMetrics(cfg.Metrics.Addr, m)
	}
	var ui *tuiSink
	if cfg.UI.TUI {
		ui = newTUI(label, engine.Name(), rec.DeviceName())
		sinks = append(sinks, ui)
		observers = append(observers, ui)
	}
	var ind *tray.Indicator
	if cfg.UI.Tray {
		ind = tray.New(label)
		sinks = append(sinks, ind)
	}
	var waiter *sessionWaiter
	if f.test {
		waiter = newSessionWaiter()
		observers = append(observers, waiter)
	}

	var dump dictation.AudioSink
	if cfg.Audio.DumpDir != "" {
		dump = dictation.WAVDump{Dir: cfg.Audio.DumpDir}
	}
	ctrl := dictation.New(dictation.Deps{
		Capture:     rec,
		Transcriber: engine,
		Typist:      ty,
		Presence:    sinks,
		Observer:    observers,
		Dump:        dump,
	}, dictation.Options{
		SampleRate:        cfg.Audio.SampleRate,
		Device:            rec.DeviceName(),
		TranscribeTimeout: cfg.Model.Timeout,
	})

	if f.test {
		runTestMode(ctrl, fake, waiter)
		return
	}

	hk, err := hotkey.New(keys, cfg.Hotkey.Backend)
	if err != nil {
		fatalf("hotkey: %v", err)
	}
	if cfg.Hotkey.LongPress > 0 {
		hk = hotkey.NewHybrid(hk, cfg.Hotkey.LongPress)
	}
	if err := hk.Register(); err != nil {
		fatalf("hotkey register error: %v", err)
	}
	go ctrl.Run(ctx, hk)

	shutdown.OnSignal(func(sig os.Signal) {
		log.Infof("received %s", sig)
		exit(0)
	})
	log.Infof("Ready. Hold %s to dictate (engine %s).", label, engine.Name())

	if ui != nil {
		go func() {
			if err := ui.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			exit(0)
		}()
	}
	if ind != nil {
		go func() {
			<-ind.Exit()
			ind.Quit()
			// let the tray loop take the icon down before the process ends
			time.Sleep(200 * time.Millisecond)
			exit(0)
		}()
		runTray(ind, func() { exit(0) })
		return
	}
	select {}
}

func newEngine(ctx context.Context, cfg *config.Config) (transcriber.Transcriber, error) {
	var engine transcriber.Transcriber
	switch cfg.Model.Engine {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		o := transcriber.NewOpenAI(key, cfg.Model.Language)
		go o.Warm()
		engine = o
	default:
		path, err := transcriber.EnsureModel(ctx, &http.Client{}, cfg.Model.CacheDir, cfg.Model.Name)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", cfg.Model.Name, err)
		}
		w, err := whisper.Load(path, cfg.Model.Name, whisper.Options{
			Language: cfg.Model.Language,
			BeamSize: cfg.Model.BeamSize,
			Threads:  cfg.Model.Threads,
		})
		if err != nil {
			return nil, fmt.Errorf("loading model %s: %w", path, err)
		}
		engine = w
	}
	if cfg.VAD.Enabled {
		engine = transcriber.WithVAD(engine, vad.New(cfg.VAD.MinSilence))
	}
	return engine, nil
}

func pickDevice(actx audio.Context, cfg *config.Config, setup bool) (*audio.DeviceInfo, error) {
	if setup {
		dev, err := audio.SelectDevice(actx, os.Stdout)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Println("Falling back to default device")
			return nil, nil
		}
		return dev, nil
	}
	if cfg.Audio.Device == "" {
		return nil, nil
	}
	dev, err := audio.FindDevice(actx, cfg.Audio.Device)
	if err != nil {
		return nil, fmt.Errorf("device %q: %w", cfg.Audio.Device, err)
	}
	if audio.IsBluetooth(dev.Name) {
		log.Warnf("%s looks like a Bluetooth headset; capture may switch it to low quality", dev.Name)
	}
	return dev, nil
}

func serveMetrics(addr string, m *metrics.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	go func() {
		log.Infof("metrics listening on http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Errorf("metrics server error: %v", err)
		}
	}()
}

// stdoutTypist prints instead of typing, for the scripted test mode.
type stdoutTypist struct{}

func (stdoutTypist) Type(_ context.Context, text string) error {
	fmt.Printf("TYPED: %s\n", strings.TrimSpace(text))
	return nil
}
