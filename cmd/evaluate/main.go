package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/benwing/fieldspring/pkg/config"
	"github.com/benwing/fieldspring/pkg/eval"
	"github.com/benwing/fieldspring/pkg/logger"
	"github.com/benwing/fieldspring/pkg/storage"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var (
	accuracyOnly = flag.Bool("accuracy", false, "report gold-index accuracy instead of the signature-matching evaluation")
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

	db, err := bolt.Open(cfg.CorpusDB, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		zapLog.Fatal("opening corpus db", zap.Error(err))
	}
	defer db.Close()

	store, err := storage.NewCorpusStore(db)
	if err != nil {
		zapLog.Fatal("opening corpus store", zap.Error(err))
	}

	pred, err := store.LoadCorpus(cfg.Corpus)
	if err != nil {
		zapLog.Fatal("loading predicted corpus", zap.String("corpus", cfg.Corpus), zap.Error(err))
	}

	if *accuracyOnly {
		report := eval.NewAccuracyEvaluator(pred).Evaluate()
		fmt.Printf("Accuracy: %f (%d/%d)\n", report.Accuracy(), report.TP(), report.Instances())
		return
	}

	gold, err := store.LoadCorpus(cfg.GoldCorpus)
	if err != nil {
		zapLog.Fatal("loading gold corpus", zap.String("corpus", cfg.GoldCorpus), zap.Error(err))
	}

	evaluator := eval.NewSignatureEvaluator(gold, cfg.Oracle)
	evaluator.ErrorsPath = cfg.ErrorsFile
	report, err := evaluator.Evaluate(pred)
	if err != nil {
		zapLog.Fatal("evaluating corpus", zap.Error(err))
	}

	fmt.Printf("P: %f  R: %f  F1: %f\n", report.Precision(), report.Recall(), report.FMeasure())
	fmt.Printf("TP: %d  FP: %d  FN: %d\n", report.TP(), report.FP(), report.FN())

	dreport := evaluator.DistanceReport()
	if dreport.Count() > 0 {
		fmt.Printf("Error km  min: %f  max: %f  mean: %f  median: %f\n",
			dreport.Min(), dreport.Max(), dreport.Mean(), dreport.Median())
		fmt.Printf("Fraction within %.0f km: %f\n", eval.CloseDistanceKm, dreport.FractionClose())
	}
}
