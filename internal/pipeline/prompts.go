package pipeline

import "github.com/sells-group/visibility-cli/internal/llm"

const brandInfoSystemPrompt = `You are a market analyst. From a brand's homepage content, describe the brand in the requested JSON shape. Use the requested language for free text.`

const brandInfoPrompt = `Brand domain: %s
Market: %s (language %s)
Known sector: %s

Homepage content (first 6000 chars):
%s

Return the brand's commercial name, a short name people use for it (empty if none), its sector and a two-sentence description.`

const competitorsPrompt = `List up to %d direct competitors of %s (%s), a %s brand operating in %s.
Answer in language %s. For each competitor give its commercial name, the short name people use (empty if none) and its main website domain without protocol.`

const personasPrompt = `Describe up to %d buyer personas for %s, a %s brand in %s.
%s
Answer in language %s. Each persona needs a short name and a one-sentence description of their needs.`

const funnelPrompt = `Describe the stages of the customer journey for the %s sector in %s, from first need to purchase.
Answer in language %s. Give each stage a one-word name, a one-sentence description and two example search queries.`

const keywordsSystemPrompt = `You are an SEO strategist. Suggest search keywords real users type, in the requested language. No brand names.`

const keywordsPrompt = `Sector: %s
Market: %s (language %s)
Persona: %s - %s
Funnel stage: %s - %s

Suggest up to %d keywords this persona would search at this stage.`

const enrichSystemPrompt = `You classify search keywords and rewrite them as the natural question a user would ask an AI assistant. The question must not name any brand.`

const enrichPrompt = `Sector: %s
Market: %s (language %s)
Keyword: %s
Persona hint: %s
Funnel stage hint: %s

Classify the keyword's intent (informational, commercial, transactional or navigational), give a two or three word topic, and write the question in language %s.`

const entitiesSystemPrompt = `You extract named entities from AI assistant answers. Only list names that appear in the text.`

const entitiesPrompt = `List the brands, companies, products and organizations named in this answer. Use type "brand" for commercial brands and companies, "product", "organization" or "other" otherwise.

Answer:
%s`

var (
	brandInfoSchema   = llm.SchemaFor[brandInfoReply]()
	brandListSchema   = llm.SchemaFor[brandListReply]()
	personaListSchema = llm.SchemaFor[personaReply]()
	funnelSchema      = llm.SchemaFor[funnelReply](llm.Require([]string{"items", "[]"}, "name"))
	keywordsSchema    = llm.SchemaFor[keywordsReply]()
	enrichSchema      = llm.SchemaFor[enrichReply](
		llm.Enum([]string{"intent"}, "informational", "commercial", "transactional", "navigational"),
	)
	entitiesSchema = llm.SchemaFor[entitiesReply]()
)
