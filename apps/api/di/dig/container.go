package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/specedu/caseboard/apps/api/echo"
	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/iep"
	"github.com/specedu/caseboard/core/message"
	"github.com/specedu/caseboard/core/question"
	"github.com/specedu/caseboard/core/record"
	"github.com/specedu/caseboard/core/sheet"
	"github.com/specedu/caseboard/core/user"
	aisvc "github.com/specedu/caseboard/services/ai"
	emailsvc "github.com/specedu/caseboard/services/email"
	filesvc "github.com/specedu/caseboard/services/files"
	googlesvc "github.com/specedu/caseboard/services/google"
	logsvc "github.com/specedu/caseboard/services/logger"
	notifysvc "github.com/specedu/caseboard/services/notify"
	"github.com/specedu/caseboard/storage"
)

type StorageLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storageLogger"`
}

// Resources collects what must be released when the application stops.
type Resources struct {
	mu      sync.Mutex
	names   []string
	closers []func() error
}

func (r *Resources) Add(name string, closer func() error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.closers = append(r.closers, closer)
}

// Close releases the resources in reverse order.
func (r *Resources) Close(logger core.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logger.Error(fmt.Sprintf("closing %s: %v", r.names[i], err), err)
		}
	}
	r.names, r.closers = nil, nil
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorageLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "STORAGE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newTables(conf *core.Config, res *Resources, loggerParam StorageLoggerParam) sheet.TableService {
	tables, closeTables, err := storage.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Backend, err), err)
	}
	res.Add("storage", closeTables)
	return tables
}

func newFileStorage(conf *core.Config) (iep.FileStorage, error) {
	ctx := context.Background()
	switch conf.Files.Backend {
	case "drive":
		opts, err := googlesvc.ClientOptions(conf, googlesvc.ScopeDrive)
		if err != nil {
			return nil, err
		}
		return filesvc.NewDriveStorage(ctx, conf.Files.FolderID, opts...)
	case "minio":
		return filesvc.NewMinioStorage(ctx, conf)
	default:
		return nil, errors.Errorf("unknown files backend %q", conf.Files.Backend)
	}
}

func newSummarizer(conf *core.Config, res *Resources) (message.Summarizer, error) {
	switch conf.AI.Provider {
	case "gemini":
		g, err := aisvc.NewGemini(context.Background(), conf)
		if err != nil {
			return nil, err
		}
		res.Add("gemini", g.Close)
		return g, nil
	case "openai", "deepseek":
		return aisvc.NewChatCompletion(conf), nil
	default:
		return nil, errors.Errorf("unknown ai provider %q", conf.AI.Provider)
	}
}

type NotifierResult struct {
	dig.Out
	Notifier core.Notifier
	Redis    *notifysvc.RedisNotifier // nil unless redis.url is set
}

// newNotifier publishes to Redis when configured so every API process sees every event;
// otherwise straight to the local hub.
func newNotifier(conf *core.Config, hub *notifysvc.Hub, res *Resources, logger core.Logger) (NotifierResult, error) {
	if conf.Redis.URL == "" {
		return NotifierResult{Notifier: hub}, nil
	}
	rn, err := notifysvc.NewRedisNotifier(conf.Redis.URL, conf.Redis.Channel, logger)
	if err != nil {
		return NotifierResult{}, err
	}
	res.Add("redis", rn.Close)
	return NotifierResult{Notifier: rn, Redis: rn}, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

type servicesParam struct {
	dig.In
	Users     *user.Service
	Records   *record.Service
	Messages  *message.Service
	IEP       *iep.Service
	Questions *question.Service
	Hub       *notifysvc.Hub
}

func newServices(p servicesParam) echoapi.Services {
	return echoapi.Services{
		Users:     p.Users,
		Records:   p.Records,
		Messages:  p.Messages,
		IEP:       p.IEP,
		Questions: p.Questions,
		Hub:       p.Hub,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(func() *Resources { return new(Resources) }))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newTables))
	must(c.Provide(newFileStorage))
	must(c.Provide(newSummarizer))
	must(c.Provide(notifysvc.NewHub))
	must(c.Provide(newNotifier))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(record.NewService))
	must(c.Provide(message.NewService))
	must(c.Provide(iep.NewService))
	must(c.Provide(question.NewService))
	must(c.Provide(newServices))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
