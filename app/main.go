package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/sms-spam/app/model"
	"github.com/umputun/sms-spam/app/retrain"
	"github.com/umputun/sms-spam/app/storage"
	"github.com/umputun/sms-spam/app/storage/engine"
	"github.com/umputun/sms-spam/app/webapi"
	"github.com/umputun/sms-spam/lib/textproc"
)

type options struct {
	Files struct {
		Vectorizer string `long:"vectorizer" env:"VECTORIZER" default:"models/cv-transform.json" description:"vectorizer artifact"`
		Classifier string `long:"classifier" env:"CLASSIFIER" default:"models/spam-sms-mnb-model.json" description:"classifier artifact"`
		Manifest   string `long:"manifest" env:"MANIFEST" default:"models/manifest.yml" description:"model manifest, empty to disable"`
		Corpus     string `long:"corpus" env:"CORPUS" default:"data/spam_ham_dataset.csv" description:"labeled training corpus (csv)"`
	} `group:"files" namespace:"files" env-namespace:"FILES"`

	DB string `long:"db" env:"DB" default:"data/feedback.db" description:"feedback database, sqlite file or postgres url"`

	Server struct {
		ListenAddr string  `long:"listen" env:"LISTEN" default:":5000" description:"listen address"`
		RateLimit  float64 `long:"rate-limit" env:"RATE_LIMIT" default:"10" description:"max predictions per minute per ip, 0 to disable"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated log file"`
		FileName   string `long:"file" env:"FILE" default:"logs/sms-spam.log" description:"location of log file"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"10M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"5" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	MaxMsgLen    int     `long:"max-msg-len" env:"MAX_MSG_LEN" default:"1000" description:"max message length in characters"`
	CacheSize    int     `long:"cache-size" env:"CACHE_SIZE" default:"1000" description:"normalized messages cache size, 0 to disable"`
	MinFeedback  int     `long:"min-feedback" env:"MIN_FEEDBACK" default:"10" description:"min labeled feedback records to retrain"`
	Alpha        float64 `long:"alpha" env:"ALPHA" default:"1.0" description:"naive bayes smoothing"`
	Train        bool    `long:"train" env:"TRAIN" description:"train model on the corpus and exit"`
	Retrain      bool    `long:"retrain" env:"RETRAIN" description:"retrain model on the corpus and feedback and exit"`
	DumpFeedback int     `long:"dump-feedback" env:"DUMP_FEEDBACK" description:"print N most recent feedback records as json lines and exit"`
	Watch        bool    `long:"watch" env:"WATCH" description:"watch artifacts and warn when restart required"`
	Dbg          bool    `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("sms-spam %s\n", revision)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] can't load .env: %v", err)
	}

	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var ferr *flags.Error
		if !errors.As(err, &ferr) || ferr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	logWr, err := makeLogWriter(opts)
	if err != nil {
		log.Printf("[ERROR] can't make log writer: %v", err)
		os.Exit(1)
	}
	defer logWr.Close()
	setupLog(opts.Dbg, logWr, dbSecrets(opts.DB)...)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	if opts.Train && opts.Retrain {
		return errors.New("train and retrain modes are mutually exclusive")
	}
	normalizer := textproc.NewNormalizer(opts.CacheSize)

	if opts.Train {
		res, err := makeJob(opts, normalizer, nil).Train(ctx)
		if err != nil {
			return fmt.Errorf("training failed: %w", err)
		}
		log.Printf("[INFO] trained model %s, samples: %d, vocabulary: %d", res.RunID, res.CorpusSamples, res.Vocabulary)
		return nil
	}

	feedback, closeDB, err := makeFeedback(ctx, opts.DB)
	if err != nil {
		return err
	}
	defer closeDB()

	if opts.DumpFeedback > 0 {
		return dumpFeedback(ctx, feedback, opts.DumpFeedback, os.Stdout)
	}

	if opts.Retrain {
		res, err := makeJob(opts, normalizer, feedback).Retrain(ctx)
		if err != nil {
			return fmt.Errorf("retraining failed: %w", err)
		}
		log.Printf("[INFO] retrained model %s, corpus: %d, feedback: %d, vocabulary: %d. restart the service to use it",
			res.RunID, res.CorpusSamples, res.FeedbackSamples, res.Vocabulary)
		return nil
	}

	return serve(ctx, opts, normalizer, feedback)
}

func serve(ctx context.Context, opts options, normalizer *textproc.Normalizer, feedback *storage.Feedback) error {
	loader := model.FileLoader{VectorizerFile: opts.Files.Vectorizer, ClassifierFile: opts.Files.Classifier,
		ManifestFile: opts.Files.Manifest}
	store := model.NewStore(loader, normalizer)

	// eager load attempt, failure is not fatal and retried on the first request
	if !store.EnsureLoaded() {
		log.Printf("[WARN] model not loaded: %v", store.LastError())
	} else if m := store.Manifest(); m != nil {
		log.Printf("[INFO] model %s (%s) trained at %s, vocabulary: %d", m.RunID, m.Mode,
			m.TrainedAt.Format(time.RFC3339), m.Vocabulary)
	}

	if opts.Watch {
		files := []string{opts.Files.Vectorizer, opts.Files.Classifier}
		if opts.Files.Manifest != "" {
			files = append(files, opts.Files.Manifest)
		}
		go func() {
			if err := store.Watch(ctx, files...); err != nil {
				log.Printf("[WARN] artifacts watcher failed: %v", err)
			}
		}()
	}

	srv := webapi.NewServer(webapi.Config{
		Version:    revision,
		ListenAddr: opts.Server.ListenAddr,
		Classifier: store,
		Feedback:   feedback,
		MaxMsgLen:  opts.MaxMsgLen,
		RateLimit:  opts.Server.RateLimit,
		Dbg:        opts.Dbg,
	})
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("web server failed: %w", err)
	}
	log.Printf("[DEBUG] normalizer cache: %+v", normalizer.Stat())
	return nil
}

func makeJob(opts options, normalizer *textproc.Normalizer, feedback retrain.FeedbackReader) *retrain.Job {
	params := retrain.Params{
		CorpusFile:     opts.Files.Corpus,
		VectorizerFile: opts.Files.Vectorizer,
		ClassifierFile: opts.Files.Classifier,
		ManifestFile:   opts.Files.Manifest,
		MinFeedback:    opts.MinFeedback,
		Alpha:          opts.Alpha,
		Feedback:       feedback,
		Normalizer:     normalizer,
	}
	log.Printf("[DEBUG] training params: corpus %s, min feedback %d, alpha %v", params.CorpusFile,
		params.MinFeedback, params.Alpha)
	return retrain.New(params)
}

// makeFeedback opens the feedback database and makes the store. Returned func closes the database.
func makeFeedback(ctx context.Context, conn string) (*storage.Feedback, func(), error) {
	db, err := engine.New(ctx, conn)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open feedback database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Printf("[WARN] can't close feedback database: %v", err)
		}
	}
	feedback, err := storage.NewFeedback(ctx, db)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("can't make feedback store: %w", err)
	}
	log.Printf("[DEBUG] feedback store opened, type %s", db.Type())
	return feedback, closeDB, nil
}

// dumpFeedback writes recent feedback records as json lines, newest first
func dumpFeedback(ctx context.Context, feedback *storage.Feedback, limit int, wr io.Writer) error {
	stats, err := feedback.Stats(ctx)
	if err != nil {
		return fmt.Errorf("can't get feedback stats: %w", err)
	}
	log.Printf("[INFO] feedback total: %d, labeled: %d, corrections: %d", stats.Total, stats.Labeled, stats.Corrections)

	recs, err := feedback.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("can't list feedback: %w", err)
	}
	for _, rec := range recs {
		m := struct {
			ID         int64   `json:"id"`
			TimeStamp  string  `json:"ts"`
			Message    string  `json:"message"`
			Predicted  string  `json:"predicted"`
			UserLabel  string  `json:"user_label,omitempty"`
			Confidence float64 `json:"confidence"`
		}{
			ID:         rec.ID,
			TimeStamp:  rec.Timestamp.In(time.Local).Format(time.RFC3339),
			Message:    strings.TrimSpace(strings.ReplaceAll(rec.Message, "\n", " ")),
			Predicted:  rec.PredictedLabel.String(),
			Confidence: rec.Confidence,
		}
		if rec.UserLabel != nil {
			m.UserLabel = rec.UserLabel.String()
		}
		line, err := json.Marshal(&m)
		if err != nil {
			return fmt.Errorf("can't marshal feedback %d: %w", rec.ID, err)
		}
		if _, err := wr.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("can't write feedback: %w", err)
		}
	}
	return nil
}

// makeLogWriter creates rotated log writer, parses options and makes lumberjack logger.
// Returns nop writer if the log file is disabled.
func makeLogWriter(opts options) (io.WriteCloser, error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	sizeParse := func(inp string) (uint64, error) {
		if inp == "" {
			return 0, errors.New("empty value")
		}
		for i, sfx := range []string{"k", "m", "g", "t"} {
			if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
				val, err := strconv.Atoi(inp[:len(inp)-1])
				if err != nil {
					return 0, fmt.Errorf("can't parse %s: %w", inp, err)
				}
				return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
			}
		}
		return strconv.ParseUint(inp, 10, 64)
	}

	maxSize, err := sizeParse(opts.Logger.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", err)
	}
	maxSize /= 1048576

	log.Printf("[INFO] logger enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(max(maxSize, 1)), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

// dbSecrets returns the password from database url to be masked in logs
func dbSecrets(conn string) []string {
	u, err := url.Parse(conn)
	if err != nil || u.User == nil {
		return nil
	}
	if pass, ok := u.User.Password(); ok && pass != "" {
		return []string{pass}
	}
	return nil
}

func setupLog(dbg bool, fileWr io.Writer, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	if fileWr != nil {
		logOpts = append(logOpts, lgr.Out(io.MultiWriter(os.Stdout, fileWr)), lgr.Err(io.MultiWriter(os.Stderr, fileWr)))
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
