package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/storage"
	"github.com/vidyasagar/yamireader/internal/theme"
)

const appName = "yamireader"

var version = "0.1.0"

var (
	dataDir   string
	configDir string
	baseURL   string
	logFile   string
	debugLog  bool
	themeName string
)

var rootCmd = &cobra.Command{
	Use:     appName + " [thread-url]",
	Short:   "A paginated terminal reader for forum threads",
	Long:    "Read forum threads page by page or as a continuous scroll, with reading progress, favorites and an offline page cache.",
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runRead(cmd, args[0])
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data-dir", "", "directory holding the database and log (default: platform data dir)")
	pf.StringVar(&configDir, "config-dir", "", "directory holding settings.json (default: platform config dir)")
	pf.StringVar(&baseURL, "base-url", forum.DefaultBaseURL, "forum origin")
	pf.StringVar(&logFile, "log-file", "", "log destination (default: <data-dir>/"+appName+".log)")
	pf.BoolVar(&debugLog, "debug", false, "log at debug level")
	pf.StringVar(&themeName, "theme", "default", "color theme ("+strings.Join(theme.List(), ", ")+")")

	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(cacheCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env holds what every subcommand opens: the logger, the database and the
// stores built on it.
type env struct {
	log       *zap.Logger
	db        *storage.DB
	favorites *storage.FavoriteStore
	pages     *storage.PageCacheStore
	settings  *storage.SettingsFile

	closeLog func()
}

// openEnv resolves directories and opens storage. console routes errors to
// stderr as well as the log file.
func openEnv(console bool) (*env, error) {
	var err error
	if dataDir == "" {
		if dataDir, err = storage.DataDir(); err != nil {
			return nil, err
		}
	}
	if configDir == "" {
		if configDir, err = storage.ConfigDir(); err != nil {
			return nil, err
		}
	}
	if logFile == "" {
		logFile = filepath.Join(dataDir, appName+".log")
	}

	log, closeLog, err := newLogger(logFile, debugLog, console)
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenDB(dataDir)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	log.Debug("storage opened", zap.String("db", db.Path()), zap.String("config", configDir))

	return &env{
		log:       log,
		db:        db,
		favorites: storage.NewFavoriteStore(db),
		pages:     storage.NewPageCacheStore(db),
		settings:  storage.NewSettingsFile(configDir),
		closeLog:  closeLog,
	}, nil
}

func (e *env) Close() error {
	err := e.db.Close()
	if err != nil {
		e.log.Error("closing database", zap.Error(err))
	}
	e.closeLog()
	return err
}

// threadPath turns a thread URL or forum path into the thread id used as the
// key for progress and cache entries.
func threadPath(arg string) (string, error) {
	if !forum.CanConvertToReaderMode(arg) {
		return "", fmt.Errorf("%q is not a thread view address", arg)
	}
	path := forum.ExtractThreadPath(baseURL, arg)
	if path == "" {
		return "", fmt.Errorf("%q is not on %s", arg, baseURL)
	}
	return path, nil
}
