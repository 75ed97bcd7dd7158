// Package assessment holds the SkillCycle questionnaire and turns a set of
// answers into the analysis prompt sent to the chat service.
package assessment

import "fmt"

// Option is one selectable answer to a question.
type Option struct {
	Value string
	Label string
}

// Question is a single multiple-choice item.
type Question struct {
	ID      int
	Text    string
	Options []Option
}

// Option returns the option with the given value.
func (q Question) Option(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

func abcd(a, b, c, d string) []Option {
	return []Option{
		{Value: "A", Label: a},
		{Value: "B", Label: b},
		{Value: "C", Label: c},
		{Value: "D", Label: d},
	}
}

var questions = []Question{
	{ID: 1, Text: "哪种活动最能让你感到充实感和成就感？", Options: abcd(
		"帮助别人解决问题", "完成一项有创造性的作品", "学习并掌握一个全新技能", "组织一次高效的团队协作")},
	{ID: 2, Text: "如果你可以选择一种方式度过一个自由的下午，你会选择？", Options: abcd(
		"阅读一本书或听播客", "写下你的想法或创作点子", "和朋友聊天、参与讨论", "去尝试一个从没做过的新事物")},
	{ID: 3, Text: "朋友最常因为哪种事情来请教你？", Options: abcd(
		"心理支持或情感建议", "写作或表达上的建议", "技术类问题或工具推荐", "如何做决定或安排计划")},
	{ID: 4, Text: `哪种任务让你最容易进入"心流状态"？`, Options: abcd(
		"深度研究某个感兴趣的主题", "创造新的东西（设计、写作、视频等）", "教别人知识或做演示", "做计划、整理信息或复盘总结")},
	{ID: 5, Text: "哪种评价听起来最像别人对你的印象？", Options: abcd(
		`"你总能想到别人想不到的点"`, `"你是我们这群人中最会照顾人的"`, `"和你聊天总能获得启发"`, `"你太会规划了，安排得明明白白"`)},
	{ID: 6, Text: "面对一个陌生但有趣的领域，你会怎么做？", Options: abcd(
		"马上查资料、上手试一试", "找人聊聊，看看他们怎么看", "给自己设个小目标挑战一下", "把它拆解成步骤，做一个探索计划")},
	{ID: 7, Text: `哪一种状态最符合你觉得"活着真好"的时刻？`, Options: abcd(
		"和喜欢的人一起做喜欢的事", "完成一个原本以为做不到的挑战", "有人因为你的建议变得更好", "把一个混乱的局面理清楚了")},
	{ID: 8, Text: "你最希望自己的哪一方面被别人看到？", Options: abcd(
		"洞察力和思考力", "情感上的理解力和陪伴感", "好奇心和快速学习能力", "行动力和执行力")},
	{ID: 9, Text: "你最容易坚持下去的事情是？", Options: abcd(
		"有人一起做、有交流反馈的事", "能让你表达内心想法的事情", "能持续挑战、升级难度的事情", "有明确目标和可见进展的事情")},
	{ID: 10, Text: `你觉得哪种"工作状态"最吸引你？`, Options: abcd(
		"不断学习新技能、探索新方向", "把创意想法落地成具体成果", "成为某个领域里值得信赖的人", "和一群志同道合的人一起把事做好")},
}

// Questions returns the questionnaire in presentation order. The slice is a copy.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// QuestionByID looks up a question.
func QuestionByID(id int) (Question, error) {
	for _, q := range questions {
		if q.ID == id {
			return q, nil
		}
	}
	return Question{}, fmt.Errorf("question %d: %w", id, ErrUnknownQuestion)
}
