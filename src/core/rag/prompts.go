package rag

const (
	GroundedAnswerSystemMessageTmpl = `
You are a helpful assistant that answers questions using only the provided context.
If the context does not contain the information needed to answer, say you don't know.
Do not use outside knowledge. Cite the source label of each passage you rely on.
`
	GroundedAnswerPromptTmpl = `
Context passages, delimited by XML tags <CONTEXT></CONTEXT>, each labelled with its source:

<CONTEXT>
{{- range .Passages}}
[{{.Source}}#{{.Index}}]
{{.Content}}

{{- end}}
</CONTEXT>

Question: {{.Question}}

Answer:`

	EvaluationSystemMessage = `
You are an impartial judge scoring a question-answering system. You will be given a question, an answer, and the context passages the answer was based on.
Score two metrics, each between 0.0 and 1.0:
- faithfulness: how well every claim in the answer is supported by the context.
- answer_relevancy: how directly the answer addresses the question.
Return ONLY a JSON object: {"faithfulness": <float>, "answer_relevancy": <float>}.
`
)
