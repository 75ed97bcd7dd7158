package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrUnknownQuestion indicates an answer refers to a question not in the questionnaire.
	ErrUnknownQuestion = errors.New("unknown question")

	// ErrUnknownOption indicates an answer selects an option the question does not offer.
	ErrUnknownOption = errors.New("unknown option")

	// ErrIncomplete indicates not every question has been answered.
	ErrIncomplete = errors.New("assessment incomplete")
)

// Answer is one recorded choice. SelectedOption has the form "A: label".
type Answer struct {
	QuestionID     int    `json:"questionId"`
	Question       string `json:"question"`
	SelectedOption string `json:"selectedOption"`
}

// NewAnswer records option value for question id.
func NewAnswer(id int, value string) (Answer, error) {
	q, err := QuestionByID(id)
	if err != nil {
		return Answer{}, err
	}
	o, ok := q.Option(value)
	if !ok {
		return Answer{}, fmt.Errorf("question %d option %q: %w", id, value, ErrUnknownOption)
	}
	return Answer{
		QuestionID:     q.ID,
		Question:       q.Text,
		SelectedOption: o.Value + ": " + o.Label,
	}, nil
}

// Collect builds answers from a question-id to option-value map, in questionnaire
// order. Every question must be answered.
func Collect(choices map[int]string) ([]Answer, error) {
	answers := make([]Answer, 0, len(questions))
	var missing []string
	for _, q := range questions {
		value, ok := choices[q.ID]
		if !ok || value == "" {
			missing = append(missing, fmt.Sprint(q.ID))
			continue
		}
		a, err := NewAnswer(q.ID, value)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unanswered questions %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return answers, nil
}

const queryTemplate = `请分析以下技能测评结果，并提供详细的个人能力评估和商业化建议：

=== 技能测评数据 ===
%s

=== 分析要求 ===
请基于以上测评结果，提供以下分析：

1. **个人技能画像**
   - 主要技能特点和优势
   - 性格和工作偏好总结

2. **市场机会分析**
   - 基于技能的市场需求评估
   - 潜在的商业化方向

3. **变现方法建议**
   - 短期可实施的变现方式
   - 长期发展建议

4. **具体行动计划**
   - 近期可执行的3-5个具体步骤
   - 每个步骤的预期时间和资源需求

请以结构化的方式组织回答，便于理解和执行。`

// FormatQuery renders answers into the analysis request sent to the chat service.
func FormatQuery(answers []Answer) (string, error) {
	data, err := marshalAnswers(answers)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(queryTemplate, data), nil
}

// WriteJSON writes answers as indented JSON followed by a newline.
func WriteJSON(w io.Writer, answers []Answer) error {
	data, err := marshalAnswers(answers)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("writing answers: %w", err)
	}
	return nil
}

// ReadJSON parses answers previously written by WriteJSON.
func ReadJSON(r io.Reader) ([]Answer, error) {
	var answers []Answer
	if err := json.NewDecoder(r).Decode(&answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	return answers, nil
}

func marshalAnswers(answers []Answer) ([]byte, error) {
	if answers == nil {
		answers = []Answer{}
	}
	data, err := json.MarshalIndent(answers, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling answers: %w", err)
	}
	return data, nil
}
