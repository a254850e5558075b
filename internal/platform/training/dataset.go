// internal/platform/training/dataset.go
package training

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openeeap/replytune/pkg/errors"
)

// DefaultDataset 内置演示邮件
func DefaultDataset() []string {
	return []string{
		"Could you help me with the project deadline?",
		"I'm having trouble with my computer.",
		"When is the next team meeting?",
		"Can you review my presentation?",
		"I need access to the shared drive.",
	}
}

// datasetDocument 结构化数据集文件，也接受顶层字符串列表
type datasetDocument struct {
	Emails []string `json:"emails" yaml:"emails"`
}

// LoadDataset 按扩展名读取数据集：.yaml/.yml、.json，其余按空行分段的纯文本
func LoadDataset(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrTrainInvalidConfig, "cannot read dataset "+path)
	}
	return ParseDataset(filepath.Ext(path), data)
}

// ParseDataset 解析数据集内容
func ParseDataset(ext string, data []byte) ([]string, error) {
	var emails []string
	var err error

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		emails, err = parseStructured(data, yaml.Unmarshal)
	case ".json":
		emails, err = parseStructured(data, json.Unmarshal)
	default:
		emails = parsePlainText(string(data))
	}
	if err != nil {
		return nil, errors.WrapFromCode(err, errors.ErrTrainInvalidConfig, "malformed dataset")
	}

	emails = compact(emails)
	if len(emails) == 0 {
		return nil, errors.NewFromCode(errors.ErrTrainEmptyDataset)
	}
	return emails, nil
}

func parseStructured(data []byte, unmarshal func([]byte, interface{}) error) ([]string, error) {
	var list []string
	if err := unmarshal(data, &list); err == nil {
		return list, nil
	}

	var doc datasetDocument
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Emails, nil
}

// parsePlainText 空行分隔多封邮件，邮件内部保留换行
func parsePlainText(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var emails []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			emails = append(emails, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, strings.TrimRight(line, " \t"))
	}
	flush()
	return emails
}

func compact(emails []string) []string {
	out := emails[:0]
	for _, e := range emails {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

//Personal.AI order the ending
