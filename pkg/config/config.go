// Package config loads the batch drivers' configuration from a config.yaml
// in the working directory.
package config

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// CorpusDB is the bbolt file holding stored corpora.
	CorpusDB string `mapstructure:"corpus_db" validate:"required"`
	// Corpus is the name of the corpus to resolve.
	Corpus string `mapstructure:"corpus" validate:"required"`
	// GoldCorpus is the name of the gold corpus used for evaluation.
	GoldCorpus string `mapstructure:"gold_corpus"`

	// Resolver selects the algorithm: wmd, prob, basicmindist, docdist or
	// random.
	Resolver string `mapstructure:"resolver" validate:"oneof=wmd prob basicmindist docdist random"`

	// Iterations is the number of weight-learning iterations for wmd.
	Iterations int `mapstructure:"iterations" validate:"gte=0"`
	// WeightsIn skips iterative learning and reads weights from this file;
	// requires GeoLog for the document-distance backoff.
	WeightsIn string `mapstructure:"weights_in"`
	// WeightsOut persists learned distributions (prob resolver).
	WeightsOut string `mapstructure:"weights_out"`
	// LexiconOut persists the toponym lexicon FST beside the weights file.
	LexiconOut string `mapstructure:"lexicon_out"`
	// GeoLog is a document-geolocation run log.
	GeoLog string `mapstructure:"geo_log"`
	// DocCoordMode is one of no, addtopo, weighted.
	DocCoordMode string `mapstructure:"doc_coord_mode" validate:"omitempty,oneof=no addtopo weighted"`

	// ModelDir holds per-toponym-type context classifiers (prob resolver).
	ModelDir string `mapstructure:"model_dir"`
	// PopCoefficient mixes the population prior into the prob blend.
	PopCoefficient float64 `mapstructure:"pop_coefficient" validate:"gte=0,lte=1"`
	// MEProbOnly / DGProbOnly are the prob resolver's diagnostic modes.
	MEProbOnly bool `mapstructure:"me_prob_only"`
	DGProbOnly bool `mapstructure:"dg_prob_only"`

	// Oracle switches the signature evaluator to its upper-bound mode.
	Oracle bool `mapstructure:"oracle"`
	// ErrorsFile receives the per-toponym-type error breakdown.
	ErrorsFile string `mapstructure:"errors_file"`
}

func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("resolver", "wmd")
	viper.SetDefault("iterations", 10)
	viper.SetDefault("doc_coord_mode", "no")
	viper.SetDefault("errors_file", "errors.txt")

	if err := viper.ReadInConfig(); err != nil {
		var typeErr viper.ConfigFileNotFoundError
		if !errors.As(err, &typeErr) {
			return nil, err
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}
	return config, nil
}
