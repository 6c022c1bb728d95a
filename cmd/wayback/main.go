// Command wayback is a CLI interface to stored wayback histories.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/bobg/subcmd"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/bobg/wayback"
	"github.com/bobg/wayback/store"
	_ "github.com/bobg/wayback/store/file"
	_ "github.com/bobg/wayback/store/gcs"
	_ "github.com/bobg/wayback/store/logging"
	_ "github.com/bobg/wayback/store/lru"
	_ "github.com/bobg/wayback/store/mem"
	_ "github.com/bobg/wayback/store/pg"
	_ "github.com/bobg/wayback/store/replica"
	_ "github.com/bobg/wayback/store/sqlite3"
)

type maincmd struct {
	s      store.Store
	name   string
	opts   *wayback.Options
	logger *logrus.Logger

	stdin  io.Reader
	stdout io.Writer
}

func main() {
	var (
		config  = flag.String("config", "wayback.json", "path to config file")
		name    = flag.String("name", "default", "name of the history to operate on")
		verbose = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *config == "" {
		logger.Fatal("Config value not set")
	}

	conf, err := readConfig(*config)
	if err != nil {
		logger.WithError(err).Fatalf("Reading config file %s", *config)
	}

	typ, ok := conf["type"].(string)
	if !ok {
		logger.Fatalf("Config file %s missing `type` parameter", *config)
	}

	opts, err := options(conf, logger)
	if err != nil {
		logger.WithError(err).Fatalf("Config file %s", *config)
	}

	ctx := context.Background()

	s, err := store.Create(ctx, typ, conf)
	if err != nil {
		logger.WithError(err).Fatalf("Creating %s-type store", typ)
	}
	logger.WithFields(logrus.Fields{"type": typ, "name": *name}).Debug("opened store")

	c := maincmd{
		s:      s,
		name:   *name,
		opts:   opts,
		logger: logger,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
	err = subcmd.Run(ctx, c, flag.Args())
	if err != nil {
		logger.Fatal(err)
	}
}

func readConfig(filename string) (map[string]interface{}, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "opening")
	}
	defer f.Close()

	var conf map[string]interface{}
	dec := json.NewDecoder(f)
	dec.UseNumber()
	err = dec.Decode(&conf)
	return conf, errors.Wrap(err, "decoding")
}

// options builds history options from the "max" and "hash" config parameters.
func options(conf map[string]interface{}, logger *logrus.Logger) (*wayback.Options, error) {
	opts := &wayback.Options{
		OnEvict: func(id wayback.ID, _ wayback.Revision) {
			logger.WithField("id", id).Info("evicted")
		},
	}

	if m, ok := conf["max"].(json.Number); ok {
		n, err := m.Int64()
		if err != nil {
			return nil, errors.Wrapf(err, "parsing max %v", m)
		}
		opts.MaxRevisions = int(n)
	}

	hash, _ := conf["hash"].(string)
	gen, err := wayback.GeneratorByName(hash)
	if err != nil {
		return nil, err
	}
	opts.Generator = gen

	return opts, nil
}

func (c maincmd) Subcmds() subcmd.Map {
	formatParam := subcmd.Params("format", subcmd.String, "json", "snapshot format (json or proto)")

	return subcmd.Commands(
		"export", c.export, formatParam,
		"get", c.get, nil,
		"has", c.has, nil,
		"head", c.head, nil,
		"import", c.doImport, formatParam,
		"insert", c.insert, subcmd.Params("parent", subcmd.String, "", "ID of the revision to insert after"),
		"len", c.len, nil,
		"log", c.log, nil,
		"ls", c.ls, nil,
		"origin", c.origin, nil,
		"pop", c.pop, nil,
		"push", c.push, nil,
		"seq", c.seq, nil,
		"tail", c.tail, nil,
	)
}

func (c maincmd) open(ctx context.Context) (*wayback.History, error) {
	return store.Open(ctx, c.s, c.name, c.opts)
}

func (c maincmd) update(ctx context.Context, f func(*wayback.History) error) error {
	return store.Update(ctx, c.s, c.name, c.opts, f)
}
