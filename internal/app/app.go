// Package app loads the service artifacts and wires the domain services
// together. Any missing or inconsistent artifact is a startup error.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Skufu/symptomsense/internal/awsclient"
	"github.com/Skufu/symptomsense/internal/config"
	"github.com/Skufu/symptomsense/internal/labreport"
	"github.com/Skufu/symptomsense/internal/model"
	"github.com/Skufu/symptomsense/internal/nlp"
	"github.com/Skufu/symptomsense/internal/ocr"
	"github.com/Skufu/symptomsense/internal/predict"
	"github.com/Skufu/symptomsense/internal/server"
	"github.com/Skufu/symptomsense/internal/store"
	"github.com/Skufu/symptomsense/internal/symptoms"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Table      *symptoms.SynonymTable
	Vocabulary *symptoms.Vocabulary
	Suggester  *symptoms.SuggestionIndex
	Predictor  *predict.Service
	Analyzer   *labreport.Analyzer
	Extractor  *nlp.Extractor

	db    *pgxpool.Pool
	model server.HealthChecker
}

// New builds every service named by cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	table, err := symptoms.LoadSynonymTable(cfg.SynonymsPath)
	if err != nil {
		return nil, err
	}

	if cfg.EnableDB {
		a.db, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if cfg.SynonymsFromDB {
			extra, err := store.LoadSynonyms(ctx, a.db)
			if err != nil {
				a.Close()
				return nil, err
			}
			table = table.Merge(extra)
			logger.Info("merged database synonyms", zap.Int("entries", len(extra)))
		}
	}

	for _, col := range table.Collisions() {
		logger.Warn("synonym claimed by more than one symptom",
			zap.String("term", col.Term),
			zap.String("previous", col.Previous),
			zap.String("current", col.Current))
	}
	a.Table = table

	if err := a.buildPredictor(cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.Suggester = symptoms.NewSuggestionIndex(table)

	if err := a.buildExtraction(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("artifacts loaded",
		zap.Int("features", a.Vocabulary.Len()),
		zap.Int("synonym_terms", len(table.Terms())),
		zap.String("classifier", cfg.ClassifierBackend),
		zap.Bool("aws", cfg.EnableAWS))
	return a, nil
}

func (a *App) buildPredictor(cfg *config.Config) error {
	vocab, err := symptoms.LoadVocabulary(cfg.FeaturesPath)
	if err != nil {
		return err
	}
	labels, err := model.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return err
	}

	var (
		classifier model.Classifier
		explainer  model.Explainer
	)
	switch cfg.ClassifierBackend {
	case config.BackendRemote:
		remote := model.NewRemote(cfg.ModelServerURL, cfg.ModelTimeout)
		classifier, explainer, a.model = remote, remote, remote
	default:
		sm, err := model.LoadSoftmax(cfg.ModelPath)
		if err != nil {
			return err
		}
		if sm.Features() != vocab.Len() {
			return fmt.Errorf("model expects %d features but vocabulary has %d", sm.Features(), vocab.Len())
		}
		if err := labels.Covers(sm.Classes()); err != nil {
			return fmt.Errorf("label mapping: %w", err)
		}
		classifier, explainer = sm, sm
	}

	a.Vocabulary = vocab
	a.Predictor = predict.NewService(
		symptoms.NewNormalizer(a.Table, vocab),
		vocab, classifier, explainer, labels,
		a.Logger.Named("predict"),
	)
	return nil
}

func (a *App) buildExtraction(ctx context.Context, cfg *config.Config) error {
	var (
		image      labreport.TextExtractor = ocr.Unavailable{}
		recognizer nlp.Recognizer          = nlp.Keywords{}
		sentiment  nlp.SentimentScorer     = nlp.Lexicon{}
	)
	if cfg.EnableAWS {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWSRegion, cfg.AWSProfile)
		if err != nil {
			return err
		}
		image = ocr.NewTextractFromConfig(awsCfg)
		recognizer = nlp.NewComprehendMedicalFromConfig(awsCfg)
		sentiment = nlp.NewComprehendFromConfig(awsCfg)
	}

	a.Analyzer = labreport.NewAnalyzer(image, ocr.PDF{}, a.Logger.Named("labreport"))
	a.Extractor = nlp.NewExtractor(recognizer, sentiment, a.Suggester, a.Logger.Named("nlp"))
	return nil
}

// Deps exposes the services to the HTTP layer.
func (a *App) Deps() server.Deps {
	d := server.Deps{
		Predictor: a.Predictor,
		Suggester: a.Suggester,
		Extractor: a.Extractor,
		Analyzer:  a.Analyzer,
		Model:     a.model,
		Logger:    a.Logger,
	}
	if a.db != nil {
		d.DB = a.db
	}
	return d
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
