package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"drum-trigger/config"
	"drum-trigger/debug"
	"drum-trigger/generate"
	"drum-trigger/mapping"
	"drum-trigger/midi"
	"drum-trigger/render"
	"drum-trigger/sequencer"
	"drum-trigger/theme"
	"drum-trigger/tui"
	"drum-trigger/widgets"
)

var errUsage = errors.New("usage")

// flags every command shares. Values are applied over the loaded config
// only when given on the command line.
type flags struct {
	fs *flag.FlagSet

	config    string
	spacing   float64
	velocity  int
	bpm       int
	ticks     int
	channel   int
	mapping   string
	kit       string
	trackName string
	logLevel  string
	debug     bool
	debugFile string
}

func newFlags(name string) *flags {
	d := config.DefaultConfig()
	f := &flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := f.fs
	fs.StringVar(&f.config, "config", "", "config file (default ./config.yaml, then ~/.config/drum-trigger/config.yaml)")
	fs.Float64Var(&f.spacing, "spacing", d.SpacingMultiplier, "spacing multiplier (1.0 = default, 2.0 = double spacing)")
	fs.IntVar(&f.velocity, "velocity", d.Velocity, "note velocity 0-127")
	fs.IntVar(&f.bpm, "bpm", d.BPM, "tempo in BPM")
	fs.IntVar(&f.ticks, "ticks", d.TicksPerBeat, "ticks per beat")
	fs.IntVar(&f.channel, "channel", d.Channel, "MIDI channel 1-16")
	fs.StringVar(&f.mapping, "mapping", d.Mapping, "drum mapping JSON file (default "+generate.DefaultMappingFile+", else the gm kit)")
	fs.StringVar(&f.kit, "kit", d.Kit, "built-in kit: "+strings.Join(mapping.KitNames(), ", "))
	fs.StringVar(&f.trackName, "track-name", d.TrackName, "track name written to the file")
	fs.StringVar(&f.logLevel, "log-level", d.Log.Level, "log level: debug, info, warn, error")
	fs.BoolVar(&f.debug, "debug", d.Log.Debug, "write a debug log")
	fs.StringVar(&f.debugFile, "debug-file", d.Log.DebugFile, "debug log path, - for stderr (default "+debug.DefaultPath()+")")
	return f
}

// parse parses args, loads the config and applies the flags that were set.
// The first positional argument, if any, replaces the output path.
func (f *flags) parse(ctx context.Context, args []string) (context.Context, *config.Config, error) {
	if err := f.fs.Parse(args); err != nil {
		return ctx, nil, err
	}
	cfg, err := config.Load(f.config)
	if err != nil {
		return ctx, nil, err
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "spacing":
			cfg.SpacingMultiplier = f.spacing
		case "velocity":
			cfg.Velocity = f.velocity
		case "bpm":
			cfg.BPM = f.bpm
		case "ticks":
			cfg.TicksPerBeat = f.ticks
		case "channel":
			cfg.Channel = f.channel
		case "mapping":
			cfg.Mapping = f.mapping
		case "kit":
			cfg.Kit = f.kit
		case "track-name":
			cfg.TrackName = f.trackName
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "debug":
			cfg.Log.Debug = f.debug
		case "debug-file":
			cfg.Log.DebugFile = f.debugFile
			cfg.Log.Debug = true
		}
	})
	if out := f.fs.Arg(0); out != "" {
		cfg.Output = out
	}
	if f.fs.NArg() > 1 {
		return ctx, nil, fmt.Errorf("%w: unexpected arguments %v", errUsage, f.fs.Args()[1:])
	}

	if err := cfg.Validate(); err != nil {
		return ctx, nil, err
	}

	logger := debug.New(os.Stderr, cfg.Log.Level)
	ctx = debug.WithContext(ctx, logger)
	if cfg.Log.Debug {
		if cfg.Log.DebugFile == "-" {
			debug.EnableWriter(os.Stderr)
		} else if err := debug.Enable(cfg.Log.DebugFile); err != nil {
			logger.Warn("debug log unavailable", "err", err)
		}
	}
	if debug.Enabled() {
		logger.Debug("debug log on", "file", cfg.Log.DebugFile)
	}
	if cfg.File != "" {
		logger.Debug("loaded config", "file", cfg.File)
	}
	return ctx, cfg, nil
}

func options(cfg *config.Config) generate.Options {
	return generate.Options{
		Output:    cfg.Output,
		Mapping:   cfg.Mapping,
		Kit:       cfg.Kit,
		TrackName: cfg.TrackName,
		Params:    cfg.Params(),
	}
}

func loadTheme(cfg *config.Config) *theme.Theme {
	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Log("theme", "palette unavailable, using built-in", "err", err)
		palette = theme.Plasma
	}
	return theme.New(palette)
}

// helpOK turns -h into a clean exit
func helpOK(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func formatDuration(seconds float64) string {
	return durafmt.Parse(time.Duration(seconds * float64(time.Second))).LimitFirstN(2).String()
}

func runGenerate(ctx context.Context, args []string) error {
	f := newFlags("generate")
	list := f.fs.Bool("list", false, "list the drum mapping and exit")
	ctx, cfg, err := f.parse(ctx, args)
	if err != nil {
		return helpOK(err)
	}
	if *list {
		return printList(cfg)
	}

	th := loadTheme(cfg)
	res, err := generate.Run(ctx, options(cfg))
	if err != nil {
		return err
	}

	ok := lipgloss.NewStyle().Foreground(th.Success())
	dim := lipgloss.NewStyle().Foreground(th.Muted())
	total := sequencer.TotalSeconds(res.Records, cfg.BPM)

	fmt.Println(ok.Render("MIDI file saved: ") + res.Output + dim.Render(" ("+humanize.Bytes(uint64(len(res.MIDI)))+")"))
	fmt.Println(ok.Render("Timing info saved: ") + res.TimingPath + dim.Render(" ("+humanize.Bytes(uint64(len(res.Timing)))+")"))
	fmt.Printf("  Source: %s\n", res.Source)
	fmt.Printf("  Samples: %d\n", len(res.Sequence))
	fmt.Printf("  Spacing multiplier: %g\n", cfg.SpacingMultiplier)
	fmt.Printf("  BPM: %d\n", cfg.BPM)
	fmt.Printf("  Total duration: %.1fs (%s)\n", total, formatDuration(total))
	fmt.Println(dim.Render("  Sequence-ID: " + res.SequenceID.String()))
	return nil
}

func runList(ctx context.Context, args []string) error {
	f := newFlags("list")
	_, cfg, err := f.parse(ctx, args)
	if err != nil {
		return helpOK(err)
	}
	return printList(cfg)
}

func printList(cfg *config.Config) error {
	raw, source, err := generate.Resolve(options(cfg))
	if err != nil {
		return err
	}
	seq, err := mapping.Normalize(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	th := loadTheme(cfg)
	title := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	fmt.Println(title.Render(fmt.Sprintf("Drum Mapping (%d samples from %s, %s form):", len(seq), filepath.Base(source), raw.Shape())))
	if sequencer.IsEmpty(seq) {
		fmt.Println("  (empty)")
		return nil
	}
	fmt.Println(widgets.MappingTable(th, seq, cfg.SpacingMultiplier))

	total := 60/float64(cfg.BPM) + seq.TotalBaseSeconds()*cfg.SpacingMultiplier
	fmt.Printf("Total at %gx spacing, %d BPM: %.1fs (%s)\n", cfg.SpacingMultiplier, cfg.BPM, total, formatDuration(total))
	return nil
}

func runPlay(ctx context.Context, args []string) error {
	f := newFlags("play")
	port := f.fs.String("port", "", "MIDI output port name, or a part of it (default: first port)")
	listPorts := f.fs.Bool("ports", false, "list MIDI output ports and exit")
	ctx, cfg, err := f.parse(ctx, args)
	if err != nil {
		return helpOK(err)
	}
	if *port != "" {
		cfg.Play.Port = *port
	}

	if *listPorts {
		ports, err := midi.Scan(ctx)
		if err != nil {
			return err
		}
		for i, name := range ports.OutNames() {
			fmt.Printf("  %d: %s\n", i, name)
		}
		return nil
	}

	res, err := generate.Prepare(options(cfg))
	if err != nil {
		return err
	}

	send, closePort, err := midi.OpenOut(ctx, cfg.Play.Port)
	if err != nil {
		return err
	}
	defer closePort()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	player := midi.NewPlayer(send, cfg.BPM, cfg.TicksPerBeat)
	stream := res.Stream
	done := make(chan error, 1)
	go func() {
		done <- player.Play(ctx, stream.Events, stream.EndDelta)
	}()

	portName := cfg.Play.Port
	if portName == "" {
		portName = "default port"
	}
	m := tui.NewModel(loadTheme(cfg), portName, res.Sequence, res.Records, cfg.BPM, stream.Duration(), player.Progress(), cancel)
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-done
		return err
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runRender(ctx context.Context, args []string) error {
	f := newFlags("render")
	d := config.DefaultConfig()
	soundfont := f.fs.String("soundfont", d.Render.SoundFont, "SoundFont (.sf2) to render with")
	sampleRate := f.fs.Int("sample-rate", d.Render.SampleRate, "sample rate: 22050, 44100, 48000 or 96000")
	program := f.fs.Int("program", d.Render.Program, "program number sent before the first note")
	wavPath := f.fs.String("wav", "", "WAV output path (default: output with .wav)")
	audition := f.fs.Bool("audition", false, "play the result through the default audio device")
	noNormalize := f.fs.Bool("no-normalize", false, "keep the synthesizer's levels")
	ctx, cfg, err := f.parse(ctx, args)
	if err != nil {
		return helpOK(err)
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "soundfont":
			cfg.Render.SoundFont = *soundfont
		case "sample-rate":
			cfg.Render.SampleRate = *sampleRate
		case "program":
			cfg.Render.Program = *program
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Render.SoundFont == "" {
		return fmt.Errorf("%w: render needs -soundfont or render.soundfont in the config", errUsage)
	}
	if *wavPath == "" {
		*wavPath = strings.TrimSuffix(cfg.Output, filepath.Ext(cfg.Output)) + ".wav"
	}

	res, err := generate.Prepare(options(cfg))
	if err != nil {
		return err
	}
	log := debug.FromContext(ctx)
	log.Info("rendering", "soundfont", cfg.Render.SoundFont, "samples", len(res.Sequence), "length", res.Stream.Duration().Round(time.Millisecond))

	audio, err := render.BounceFile(cfg.Render.SoundFont, render.Timeline{
		Events:       res.Stream.Events,
		EndTick:      res.Stream.EndTick,
		BPM:          cfg.BPM,
		TicksPerBeat: cfg.TicksPerBeat,
	}, render.Options{
		SampleRate: cfg.Render.SampleRate,
		Program:    cfg.Render.Program,
		Normalize:  !*noNormalize,
	})
	if err != nil {
		return err
	}

	wav, err := render.EncodeWAV(audio)
	if err != nil {
		return err
	}
	timingPath := generate.TimingPath(*wavPath)
	if err := generate.WriteFiles(map[string][]byte{
		*wavPath:   wav,
		timingPath: res.Timing,
	}); err != nil {
		return err
	}

	th := loadTheme(cfg)
	ok := lipgloss.NewStyle().Foreground(th.Success())
	fmt.Println(ok.Render("WAV saved: ") + *wavPath + " (" + humanize.Bytes(uint64(render.WAVSize(audio))) + ", " + durafmt.Parse(audio.Duration()).LimitFirstN(2).String() + ")")
	fmt.Println(ok.Render("Timing info saved: ") + timingPath)

	if *audition {
		log.Info("auditioning, ctrl+c to stop")
		if err := render.Audition(ctx, audio); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func runBatch(ctx context.Context, args []string) error {
	f := newFlags("batch")
	outDir := f.fs.String("out-dir", ".", "directory for the generated files")
	jobs := f.fs.Int("jobs", 0, "files generated at once (default: number of CPUs)")
	if err := f.fs.Parse(args); err != nil {
		return helpOK(err)
	}
	mappings := f.fs.Args()
	if len(mappings) == 0 {
		return fmt.Errorf("%w: batch needs one or more mapping files", errUsage)
	}

	// the positional arguments are mappings, not an output path
	ctx, cfg, err := f.parse(ctx, nil)
	if err != nil {
		return err
	}

	var all []generate.Options
	for _, m := range mappings {
		opts := options(cfg)
		opts.Mapping = m
		opts.Kit = ""
		base := strings.TrimSuffix(filepath.Base(m), filepath.Ext(m))
		opts.Output = filepath.Join(*outDir, base+".mid")
		all = append(all, opts)
	}

	results := generate.Batch(ctx, all, *jobs)

	th := loadTheme(cfg)
	okStyle := lipgloss.NewStyle().Foreground(th.Success())
	failStyle := lipgloss.NewStyle().Foreground(th.Warning())
	rows := make([][]string, len(results))
	for i, r := range results {
		if r.Err != nil {
			rows[i] = []string{failStyle.Render("FAIL"), r.Options.Mapping, r.Options.Output, r.Err.Error()}
			continue
		}
		rows[i] = []string{okStyle.Render("OK"), r.Options.Mapping, r.Result.Output, fmt.Sprintf("%d samples", len(r.Result.Sequence))}
	}
	fmt.Println(table.New().Border(lipgloss.RoundedBorder()).Headers("", "Mapping", "Output", "Result").Rows(rows...).String())
	return generate.Errors(results)
}

func runConfig(ctx context.Context, args []string) error {
	f := newFlags("config")
	if err := f.fs.Parse(args); err != nil {
		return helpOK(err)
	}
	sub := f.fs.Args()

	// the positional arguments are a subcommand, not an output path
	ctx, cfg, err := f.parse(ctx, nil)
	if err != nil {
		return err
	}

	arg := func(i int) string {
		if i < len(sub) {
			return sub[i]
		}
		return ""
	}
	switch arg(0) {
	case "", "show":
		source := cfg.File
		if source == "" {
			source = "defaults"
		}
		fmt.Printf("# %s\n", source)
		settings := cfg.Settings()
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%s: %v\n", k, settings[k])
		}
		return nil
	case "save":
		path := arg(1)
		if err := cfg.Save(path); err != nil {
			return err
		}
		if path == "" {
			path, _ = config.ConfigPath()
		}
		debug.FromContext(ctx).Info("saved config", "path", path)
		return nil
	default:
		return fmt.Errorf("%w: config [show|save [path]]", errUsage)
	}
}
