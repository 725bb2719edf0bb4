package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/app"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/config"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/logger"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/service"
)

func main() {
	code := flag.String("code", "", "purchase code to create; generated when empty")
	uses := flag.Int("uses", 10, "uses of the purchase code")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("startup failed")
	}
	defer a.Close(context.Background())

	survey, err := a.SurveyService.GetBySlug(ctx, "team-health-check", true)
	if errors.Is(err, service.ErrNotFound) {
		survey, err = a.SurveyService.Create(ctx, defaultSurvey())
	}
	if err != nil {
		log.WithError(err).Fatal("failed to seed survey")
	}

	pc, err := a.PurchaseService.CreateCode(ctx, survey.ID, *code, *uses)
	if err != nil {
		log.WithError(err).Fatal("failed to create purchase code")
	}

	fmt.Printf("Survey %q (/v1/catalog/%s) ready; purchase code %s has %d uses\n", survey.Title, survey.Slug, pc.Code, pc.UsesRemaining)
}

func defaultSurvey() *model.Survey {
	rating := func(prompt string, invert bool) model.Question {
		return model.Question{Type: model.QuestionTypeRating, Prompt: prompt, Required: true, InvertRating: invert}
	}
	text := func(prompt string) model.Question {
		return model.Question{Type: model.QuestionTypeText, Prompt: prompt}
	}

	return &model.Survey{
		Title:             "Team Health Check",
		Description:       "A short check on how the team delivers and collaborates.",
		Instructions:      "Rate each statement from 1 (strongly disagree) to 5 (strongly agree).",
		Cost:              model.MustMoney("49.00"),
		MaxRating:         5,
		Published:         true,
		PurchaseResponse:  "Share the survey link with your team.",
		CompletedMessage:  "Thank you for taking part.",
		ReportExplanation: "Averages run from 1 to 5; higher is healthier. Negatively worded statements are already inverted.",
		Categories: []model.Category{
			{
				Title: "Delivery",
				Subcategories: []model.Subcategory{
					{Title: "Pace", Questions: []model.Question{
						rating("We release work to users often.", false),
						rating("We regularly work overtime to hit deadlines.", true),
					}},
					{Title: "Quality", Questions: []model.Question{
						rating("I am confident in what we ship.", false),
						rating("Defects reach users more often than they should.", true),
					}},
				},
			},
			{
				Title: "Collaboration",
				Subcategories: []model.Subcategory{
					{Title: "Communication", Questions: []model.Question{
						rating("I know what my teammates are working on.", false),
						rating("Decisions are explained to the whole team.", false),
						text("What would make working together easier?"),
					}},
				},
			},
		},
	}
}
