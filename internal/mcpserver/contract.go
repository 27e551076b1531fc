package mcpserver

// DocumentFormatContract describes the Markdown form documents are exchanged
// in by the new_document and get_document tools.
const DocumentFormatContract = `# Pensieri Document Format

Documents are exchanged as Markdown with an optional YAML frontmatter header.

## Structure

` + "```" + `markdown
---
title: Slow Mornings        # OPTIONAL – falls back to the first "# " heading
topic: life                 # OPTIONAL – must be a value from list_topics
tags:                       # OPTIONAL – YAML list, duplicates are dropped
  - habits
cover: covers/ab12.png      # OPTIONAL – set with the set_cover tool
---

# Slow Mornings

Start with **coffee** and _quiet_.

> Less, but better.
` + "```" + `

## Blocks

Paragraphs are separated by a blank line. Each paragraph becomes one block:

- ` + "`" + `# ` + "`" + ` starts a level-one heading (tag ` + "`" + `h1` + "`" + `).
- ` + "`" + `## ` + "`" + ` starts a level-two heading (tag ` + "`" + `h2` + "`" + `).
- ` + "`" + `> ` + "`" + ` starts a quote (tag ` + "`" + `blockquote` + "`" + `); prefix every line.
- Anything else is a paragraph (tag ` + "`" + `p` + "`" + `).

No lists, tables or code blocks: they are kept as plain paragraph text.

## Inline formatting

- ` + "`" + `**bold**` + "`" + `, ` + "`" + `_italic_` + "`" + `, ` + "`" + `<u>underline</u>` + "`" + `, ` + "`" + `[text](https://link)` + "`" + `.
- Any other HTML is escaped and shown literally.

## Block tools

Block tools take block content as an HTML fragment using only ` + "`" + `<b>` + "`" + `,
` + "`" + `<i>` + "`" + `, ` + "`" + `<u>` + "`" + `, ` + "`" + `<a href>` + "`" + ` and ` + "`" + `<br>` + "`" + `. Block ids come from get_document_blocks.
The first block can never be deleted.
`
