package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"registry-console/pkg/events"
	"registry-console/pkg/logging"
	registry_go "registry-console/pkg/registry-go"
	"registry-console/pkg/registry-go/model"
	"registry-console/pkg/session"
)

const (
	keyServerUrl  = "server-url"
	keyUsername   = "username"
	keyPassword   = "password"
	keyInsecure   = "insecure"
	keyCertPath   = "ca-cert"
	keyTimeout    = "timeout"
	keyTokenFile  = "token-file"
	keyLogFile    = "log-file"
	keyLogLevel   = "log-level"
	keyKafkaUrl   = "kafka-url"
	keyKafkaTopic = "kafka-topic"
	keyKafkaTLS   = "kafka-tls"
	keyInterval   = "refresh-interval"
)

// app carries everything a command needs. It is built once per invocation in
// the root command's PersistentPreRunE.
type app struct {
	logger    *zap.Logger
	closeLog  func()
	store     *session.FileStore
	client    *registry_go.RestClient
	publisher events.Publisher
	sessions  *session.Manager
	serverUrl string
}

var (
	cfgFile string
	a       = &app{}
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "registry-console",
		Short:         "Manage namespaces, repositories, tags and users of a container registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			initConfig()
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default <user config dir>/registry-console/config.yaml)")
	flags.String(keyServerUrl, "", "registry server url, e.g. https://registry.example.com")
	flags.StringP(keyUsername, "u", "", "username used by login")
	flags.Bool(keyInsecure, false, "skip TLS certificate verification")
	flags.String(keyCertPath, "", "additional CA certificate (PEM)")
	flags.Duration(keyTimeout, 30*time.Second, "HTTP request timeout")
	flags.String(keyTokenFile, session.DefaultTokenPath(), "where the session tokens are stored")
	flags.String(keyLogFile, "", "also write logs to this file, rotated daily")
	flags.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.String(keyKafkaUrl, "", "comma separated kafka brokers receiving session events")
	flags.String(keyKafkaTopic, "registry-console-sessions", "kafka topic for session events")
	flags.Bool(keyKafkaTLS, false, "connect to kafka over TLS")
	flags.Duration(keyInterval, session.DefaultRefreshInterval, "how often the session watcher refreshes the token")
	_ = viper.BindPFlags(flags)

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newSessionCmd(),
		newNamespaceCmd(),
		newRepositoryCmd(),
		newTagCmd(),
		newArtifactCmd(),
		newUserCmd(),
		newWebhookCmd(),
		newEndpointCmd(),
	)
	return root
}

func Execute() {
	err := NewRootCmd().Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("REGISTRY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(dir + "/registry-console")
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: config file:", err)
		}
	}
}

func (a *app) init() error {
	var err error
	a.logger, a.closeLog, err = logging.NewDailyRotateLogger(logging.Config{
		File:  viper.GetString(keyLogFile),
		Level: viper.GetString(keyLogLevel),
	})
	if err != nil {
		return err
	}

	a.store = session.NewFileStore(viper.GetString(keyTokenFile))
	a.publisher = events.Nop{}
	if brokers := viper.GetString(keyKafkaUrl); brokers != "" {
		p, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:  strings.Split(brokers, ","),
			Topic:    viper.GetString(keyKafkaTopic),
			TLS:      viper.GetBool(keyKafkaTLS),
			Insecure: viper.GetBool(keyInsecure),
		}, a.logger.Named("events"))
		if err != nil {
			return err
		}
		a.publisher = p
	}

	a.serverUrl = strings.TrimSpace(viper.GetString(keyServerUrl))
	if a.serverUrl == "" {
		return errors.New("server url is not set, use --server-url or REGISTRY_SERVER_URL")
	}
	a.client, err = registry_go.NewRestClient(&registry_go.Config{
		ServerUrl: a.serverUrl,
		CertPath:  viper.GetString(keyCertPath),
		Insecure:  viper.GetBool(keyInsecure),
		Username:  strings.TrimSpace(viper.GetString(keyUsername)),
		Password:  strings.TrimSpace(viper.GetString(keyPassword)),
		Timeout:   viper.GetDuration(keyTimeout),
	},
		registry_go.WithTokenSource(a.store),
		registry_go.WithUnauthorizedHandler(a.requireLogin),
		registry_go.WithLogger(a.logger.Named("client")),
	)
	if err != nil {
		return err
	}

	a.sessions = session.NewManager(a.store,
		session.WithLogger(a.logger.Named("session")),
		session.WithInterval(viper.GetDuration(keyInterval)),
		session.WithHTTPClient(a.client.HTTPClient()),
		session.OnRefreshed(func(p model.TokenPair) {
			a.publish(events.SessionEvent{MsgType: events.Refresh, UserName: p.Username})
		}),
	)
	return nil
}

func (a *app) close() {
	if a.sessions != nil {
		a.sessions.Teardown()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("close event publisher", zap.Error(err))
		}
	}
	if a.closeLog != nil {
		a.closeLog()
	}
}

// requireLogin drops the stored session and sends the user back to the login
// command.
func (a *app) requireLogin(path string) {
	if err := a.store.Clear(); err != nil {
		a.logger.Warn("clear session", zap.Error(err))
	}
	fmt.Fprintln(os.Stderr, "Session expired or missing. Run `registry-console login` to sign in again.")
	a.publish(events.SessionEvent{MsgType: events.Unauthorized, Path: path})
}

func (a *app) publish(e events.SessionEvent) {
	e.ServerUrl = a.serverUrl
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.publisher.Publish(ctx, e); err != nil {
		a.logger.Warn("session event dropped", zap.String("type", string(e.MsgType)), zap.Error(err))
	}
}

// describe turns a client error into the title/description pair the server sent.
func describe(err error) string {
	var re registry_go.RegistryError
	if errors.As(err, &re) {
		if re.Title() != "" {
			if re.Description() != "" {
				return re.Title() + ": " + re.Description()
			}
			return re.Title()
		}
		return re.ErrorMessage()
	}
	return err.Error()
}
