package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

type videoClient interface {
	GetVideoInfo(ctx context.Context, url string, opts youtube.Options) (*models.VideoDetails, error)
	ListAvailableCaptions(ctx context.Context, url string, returnAll bool) models.MergedCaptions
	Options() youtube.Options
}

type clientFactory func(cfg *config.Config, logger *logging.Logger) videoClient

type commandContext struct {
	configFlag *string
	verbose    *bool
	factory    clientFactory

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool, factory clientFactory) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
		factory:    factory,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			c.config, c.configErr = config.Default()
			return
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) client() (videoClient, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger := logging.NewNopLogger()
	if c.verbose != nil && *c.verbose {
		logger = logging.NewWriterLogger(os.Stderr, "debug")
	}
	return c.factory(cfg, logger), nil
}
