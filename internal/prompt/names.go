package prompt

// TemplateID names a prompt template in the catalog.
type TemplateID string

const (
	TemplateCourseAnalysis       TemplateID = "course_analysis"
	TemplateAssignmentAssessment TemplateID = "assignment_assessment"
	TemplateAssignmentResponse   TemplateID = "assignment_response"
	TemplateMultipleChoice       TemplateID = "multiple_choice"
)

// Variable names shared by the templates and the task handlers.
const (
	VarCourseContent     = "course_content"
	VarAssignmentContent = "assignment_content"
	VarAssignmentPrompt  = "assignment_prompt"
	VarCourseContext     = "course_context"
	VarQuestionText      = "question_text"
	VarOptions           = "options"
)
