package domain

const defaultEmbedModel = "text-embedding-3-small"

// Builtin returns the registry of built-in domains. Object-store
// directories are rooted under dataDir.
func Builtin(dataDir string) (*Registry, error) {
	return NewRegistry(genomic(dataDir), cybersec(dataDir))
}

func genomic(dataDir string) *Config {
	return &Config{
		Name: "GENOMIC",
		Collections: Collections{
			Text:  "scientific_chunks",
			Image: "image_summaries",
			Table: "table_summaries",
		},
		EmbedModels: EmbedModels{
			Text:  defaultEmbedModel,
			Image: defaultEmbedModel,
			Table: defaultEmbedModel,
		},
		ObjectDirs: objectDirs(dataDir, "genomic"),
		Schema: Schema{
			"title":       KindText,
			"authors":     KindTextList,
			"abstract":    KindText,
			"keywords":    KindTextList,
			"Diseases":    KindTextList,
			"Methodology": KindText,
		},
		AllowedFilterKeys: []string{"title", "authors", "Diseases", "keywords", "Methodology"},
		Prompts: Prompts{
			DocMeta: `Extract the following fields from the first-page text of a paper.
Return ONLY valid JSON:
{ "title":string, "authors":[...], "abstract":string, "keywords":[...],
"Diseases":[...], "Methodology":string }
Text:
`,
			QueryMeta: `Extract any of these fields from the user query (return valid JSON):
{ "Diseases":[...], "title":string, "authors":[...],
  "keywords":[...], "Methodology":string }
Query:
`,
			AnswerHeader: answerHeader,
		},
	}
}

func cybersec(dataDir string) *Config {
	return &Config{
		Name: "CYBERSEC",
		Collections: Collections{
			Text:  "cybersec_chunks",
			Image: "cybersec_image_summaries",
			Table: "cybersec_table_summaries",
		},
		EmbedModels: EmbedModels{
			Text:  defaultEmbedModel,
			Image: defaultEmbedModel,
			Table: defaultEmbedModel,
		},
		ObjectDirs: objectDirs(dataDir, "cybersec"),
		Schema: Schema{
			"title":           KindText,
			"authors":         KindTextList,
			"abstract":        KindText,
			"keywords":        KindTextList,
			"Vulnerabilities": KindTextList,
			"Vendors":         KindTextList,
			"Methodology":     KindText,
		},
		AllowedFilterKeys: []string{"title", "authors", "Vulnerabilities", "Vendors", "keywords", "Methodology"},
		Prompts: Prompts{
			DocMeta: `Extract the following fields from the first-page text of a paper.
Return ONLY valid JSON:
{ "title":string, "authors":[...], "abstract":string, "keywords":[...],
"Vulnerabilities":[...], "Vendors":[...], "Methodology":string }
Text:
`,
			QueryMeta: `Extract any of these fields from the user query (return valid JSON):
{ "Vulnerabilities":[...], "Vendors":[...], "title":string,
  "authors":[...], "keywords":[...], "Methodology":string }
Query:
`,
			AnswerHeader: answerHeader,
		},
	}
}

// answerHeader instructs the model to answer only from the supplied
// material and to cite media with <<img:UUID>> / <<tbl:UUID>> tokens.
const answerHeader = `You are given text chunks (academic paper extracts) plus
concise summaries of images and tables that might belong to them.

- Answer strictly using ONLY the provided material.
- If the answer is not available in the chunks and tables, simply say
  "Sorry, the text does not contain information about your question".
- Cite chunks as (Doc 1), (Doc 2), etc.
- If an image/table is essential, output exactly
    <<img:FULL_UUID>>   or   <<tbl:FULL_UUID>>
  on its own line (no other text on that line).
- Do not cite an image or table that is not relevant to the question.`
