package main

import (
	"flag"
	"log"

	"github.com/benwing/fieldspring/pkg/config"
	"github.com/benwing/fieldspring/pkg/lexfst"
	"github.com/benwing/fieldspring/pkg/logger"
	"github.com/benwing/fieldspring/pkg/resolver"
	"github.com/benwing/fieldspring/pkg/storage"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	outCorpus = flag.String("out", "", "store the disambiguated corpus under this name (default: overwrite the input corpus)")
)

func main() {
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	zapLog, cleanup, err := logger.New()
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	db, err := bolt.Open(cfg.CorpusDB, 0600, nil)
	if err != nil {
		zapLog.Fatal("opening corpus db", zap.Error(err))
	}
	defer db.Close()

	store, err := storage.NewCorpusStore(db)
	if err != nil {
		zapLog.Fatal("opening corpus store", zap.Error(err))
	}

	c, err := store.LoadCorpus(cfg.Corpus)
	if err != nil {
		zapLog.Fatal("loading corpus", zap.String("corpus", cfg.Corpus), zap.Error(err))
	}

	res, err := buildResolver(zapLog, cfg)
	if err != nil {
		zapLog.Fatal("building resolver", zap.Error(err))
	}

	disambiguated, err := res.Disambiguate(c)
	if err != nil {
		zapLog.Fatal("disambiguating corpus", zap.Error(err))
	}

	if wmd, ok := res.(*resolver.WeightedMinDistResolver); ok && cfg.LexiconOut != "" {
		if err := lexfst.Save(wmd.Lexicon(), cfg.LexiconOut); err != nil {
			zapLog.Fatal("saving lexicon fst", zap.Error(err))
		}
		if cfg.WeightsOut != "" {
			if err := resolver.WriteWeights(cfg.WeightsOut, wmd.Lexicon(), wmd.Weights()); err != nil {
				zapLog.Fatal("saving weights", zap.Error(err))
			}
		}
	}

	name := cfg.Corpus
	if *outCorpus != "" {
		name = *outCorpus
	}
	if err := store.SaveCorpus(name, disambiguated); err != nil {
		zapLog.Fatal("saving disambiguated corpus", zap.Error(err))
	}
	zapLog.Info("corpus disambiguated", zap.String("corpus", name),
		zap.Int("documents", len(disambiguated.Documents)))
}

func buildResolver(zapLog *zap.Logger, cfg *config.Config) (resolver.Resolver, error) {
	switch cfg.Resolver {
	case "wmd":
		mode := resolver.DocCoordNo
		switch cfg.DocCoordMode {
		case "addtopo":
			mode = resolver.DocCoordAddTopo
		case "weighted":
			mode = resolver.DocCoordWeighted
		}
		return resolver.NewWeightedMinDistResolver(zapLog, cfg.Iterations,
			cfg.WeightsIn, cfg.GeoLog, mode)
	case "prob":
		store, err := resolver.NewDirClassifierStore(zapLog, cfg.ModelDir, nil)
		if err != nil {
			return nil, err
		}
		prob := resolver.NewProbabilisticResolver(zapLog, cfg.GeoLog, store,
			cfg.WeightsOut, cfg.PopCoefficient)
		prob.MEProbOnly = cfg.MEProbOnly
		prob.DGProbOnly = cfg.DGProbOnly
		return prob, nil
	case "basicmindist":
		return resolver.NewBasicMinDistResolver(), nil
	case "docdist":
		return resolver.NewDocDistResolver(cfg.GeoLog), nil
	default:
		return resolver.NewRandomResolver(), nil
	}
}
