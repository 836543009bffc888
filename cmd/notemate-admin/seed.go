package main

import (
	"context"
	"fmt"
	"os"

	"notemate/dto"
	"notemate/model"
	"notemate/repository"
	"notemate/utils"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Subjects []seedSubject `yaml:"subjects"`
}

// seedSubject references prerequisites by code. They must exist already or
// appear earlier in the same file.
type seedSubject struct {
	Name          string           `yaml:"name"`
	Code          string           `yaml:"code"`
	Description   string           `yaml:"description"`
	Department    string           `yaml:"department"`
	Faculty       string           `yaml:"faculty"`
	Credits       int              `yaml:"credits"`
	Semester      int              `yaml:"semester"`
	Year          int              `yaml:"year"`
	Difficulty    model.Difficulty `yaml:"difficulty"`
	Tags          []string         `yaml:"tags"`
	Prerequisites []string         `yaml:"prerequisites"`
	Icon          string           `yaml:"icon"`
	Color         string           `yaml:"color"`
}

func (cli *commandLine) seed(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}

	admin := &model.Actor{Role: model.RoleAdmin}
	created, skipped := 0, 0
	for _, s := range file.Subjects {
		_, err := cli.codes.FindByCode(ctx, s.Code)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		req, err := cli.subjectRequest(ctx, s)
		if err != nil {
			return err
		}
		if _, err := cli.subjects.Create(ctx, admin, req); err != nil {
			return errors.Wrapf(err, "subject %s", s.Code)
		}
		created++
	}
	fmt.Fprintf(cli.out, "seeded %d subjects, skipped %d existing\n", created, skipped)
	return nil
}

func (cli *commandLine) subjectRequest(ctx context.Context, s seedSubject) (dto.CreateSubjectRequest, error) {
	req := dto.CreateSubjectRequest{
		Name:        s.Name,
		Code:        s.Code,
		Description: s.Description,
		Department:  s.Department,
		Faculty:     s.Faculty,
		Credits:     s.Credits,
		Semester:    s.Semester,
		Year:        s.Year,
		Difficulty:  s.Difficulty,
		Tags:        s.Tags,
		Icon:        s.Icon,
		Color:       s.Color,
	}
	for _, code := range s.Prerequisites {
		prereq, err := cli.codes.FindByCode(ctx, code)
		if err != nil {
			return req, errors.Wrapf(err, "subject %s: prerequisite %s", s.Code, code)
		}
		req.Prerequisites = append(req.Prerequisites, prereq.ID.Hex())
	}
	req.Normalize()
	if err := utils.Validate.Struct(req); err != nil {
		return req, errors.Wrapf(err, "subject %s", s.Code)
	}
	return req, nil
}
