// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Pensieri editor and text tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pensieri/internal/editor"
	"github.com/starford/pensieri/internal/export"
	"github.com/starford/pensieri/internal/models"
	"github.com/starford/pensieri/internal/storage"
	"github.com/starford/pensieri/internal/textservice"
	"github.com/starford/pensieri/internal/topics"
)

const contractURI = "pensieri://document-format"

// Server wraps the MCP server with Pensieri tools.
type Server struct {
	mcp      *server.MCPServer
	sessions *editor.Registry
	text     *textservice.Service
	topics   *topics.Catalog
	blobs    storage.Provider
	fetch    fetcher
}

// New creates a new MCP server with all Pensieri tools registered.
func New(sessions *editor.Registry, text *textservice.Service, catalog *topics.Catalog, blobs storage.Provider) *Server {
	s := &Server{
		sessions: sessions,
		text:     text,
		topics:   catalog,
		blobs:    blobs,
		fetch:    fetchHTTP,
	}

	s.mcp = server.NewMCPServer(
		"Pensieri",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_text",
		mcp.WithDescription("Run one text-service request: summary, chat (needs question), "+
			"refine (needs mode) or title (newline-separated candidates)."),
		mcp.WithString("type", mcp.Required(), mcp.Enum("summary", "chat", "refine", "title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text to work on")),
		mcp.WithString("question", mcp.Description("Question for type=chat")),
		mcp.WithString("mode", mcp.Enum("grammar", "professional", "shorten", "expand"),
			mcp.Description("Rewrite mode for type=refine")),
	), s.generateText)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List the topics a document can be filed under."),
	), s.listTopics)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the Markdown format used by new_document and get_document."),
	), s.getDocumentContract)

	s.mcp.AddTool(mcp.NewTool("new_document",
		mcp.WithDescription("Open a new document, empty or from Markdown following the document "+
			"format contract. Returns the document id."),
		mcp.WithString("markdown", mcp.Description("Optional initial content")),
	), s.newDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List open documents, most recently edited first."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Export an open document as Markdown."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("get_document_blocks",
		mcp.WithDescription("List the blocks of an open document with their ids, tags and content."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	), s.getDocumentBlocks)

	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Insert an empty block after an existing one. Returns the new block id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("after", mcp.Required(), mcp.Description("Id of the block to insert after")),
		mcp.WithString("tag", mcp.Enum("p", "h1", "h2", "blockquote"), mcp.Description("Block type, default p")),
	), s.insertBlock)

	s.mcp.AddTool(mcp.NewTool("set_block_content",
		mcp.WithDescription("Replace the content of a block with an HTML fragment."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("block", mcp.Required(), mcp.Description("Block id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content using <b>, <i>, <u>, <a href>, <br>")),
	), s.setBlockContent)

	s.mcp.AddTool(mcp.NewTool("set_block_tag",
		mcp.WithDescription("Change the type of a block."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("block", mcp.Required(), mcp.Description("Block id")),
		mcp.WithString("tag", mcp.Required(), mcp.Enum("p", "h1", "h2", "blockquote")),
	), s.setBlockTag)

	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block. The first block is never deleted."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("block", mcp.Required(), mcp.Description("Block id")),
	), s.deleteBlock)

	s.mcp.AddTool(mcp.NewTool("refine_block",
		mcp.WithDescription("Rewrite a whole block with the text service."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("block", mcp.Required(), mcp.Description("Block id")),
		mcp.WithString("mode", mcp.Required(), mcp.Enum("grammar", "professional", "shorten", "expand")),
	), s.refineBlock)

	s.mcp.AddTool(mcp.NewTool("suggest_titles",
		mcp.WithDescription("Suggest titles for a document. Returns one candidate per line."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	), s.suggestTitles)

	s.mcp.AddTool(mcp.NewTool("set_metadata",
		mcp.WithDescription("Set the title, topic or tags of a document. Omitted fields are unchanged."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("title", mcp.Description("New title; surrounding quotes are stripped")),
		mcp.WithString("topic", mcp.Description("Topic value from list_topics")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags to add")),
	), s.setMetadata)

	s.mcp.AddTool(mcp.NewTool("set_cover",
		mcp.WithDescription("Set the cover image of a document from a data: URI or an http(s) URL. "+
			"Supported formats: png, jpg, gif, webp."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
		mcp.WithString("url", mcp.Required(), mcp.Description("data:image/...;base64,... or https://...")),
	), s.setCover)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Document Format Contract",
			mcp.WithResourceDescription("Markdown form of Pensieri documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// optString returns an optional string argument, "" when absent.
func optString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func (s *Server) session(req mcp.CallToolRequest) (*editor.Session, *mcp.CallToolResult) {
	id, err := req.RequireString("id")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("document not found: %s", id))
	}
	return sess, nil
}

func (s *Server) generateText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	r := textservice.Request{Type: textservice.Type(typ), Content: content}
	question, mode := optString(req, "question"), optString(req, "mode")
	if question != "" || mode != "" {
		r.Context = &textservice.Context{Question: question, Mode: models.RefineMode(mode)}
	}
	result, err := s.text.Generate(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) listTopics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.topics.List(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}

func (s *Server) newDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md := optString(req, "markdown")
	if strings.TrimSpace(md) == "" {
		return mcp.NewToolResultText(s.sessions.Create().ID()), nil
	}
	doc, err := export.Parse([]byte(md))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.sessions.Import(*doc).ID()), nil
}

func (s *Server) listDocuments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.sessions.List()
	if len(list) == 0 {
		return mcp.NewToolResultText("no open documents"), nil
	}
	lines := make([]string, len(list))
	for i, d := range list {
		title := d.Title
		if title == "" {
			title = "(untitled)"
		}
		lines[i] = fmt.Sprintf("%s\t%s\t%d blocks", d.ID, title, d.Blocks)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	out, err := export.Render(sess.Export())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentBlocks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	out, _ := json.MarshalIndent(sess.Export().Blocks, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) insertBlock(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	after, err := req.RequireString("after")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag := models.TagParagraph
	if raw := optString(req, "tag"); raw != "" {
		var ok bool
		if tag, ok = models.ParseTag(raw); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown block type: %s", raw)), nil
		}
	}
	id, ok := sess.InsertBlock(after, tag)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("block not found: %s", after)), nil
	}
	return mcp.NewToolResultText(id), nil
}

func (s *Server) setBlockContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	block, err := req.RequireString("block")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !sess.UpdateContent(block, content) {
		return mcp.NewToolResultError(fmt.Sprintf("block not found: %s", block)), nil
	}
	return mcp.NewToolResultText("updated: " + block), nil
}

func (s *Server) setBlockTag(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	block, err := req.RequireString("block")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tag, ok := models.ParseTag(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown block type: %s", raw)), nil
	}
	if !sess.Focus(block) {
		return mcp.NewToolResultError(fmt.Sprintf("block not found: %s", block)), nil
	}
	sess.SetBlockType(tag)
	return mcp.NewToolResultText(fmt.Sprintf("%s is now %s", block, tag)), nil
}

func (s *Server) deleteBlock(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	block, err := req.RequireString("block")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !sess.DeleteBlock(block) {
		return mcp.NewToolResultError(fmt.Sprintf("block %s cannot be deleted", block)), nil
	}
	return mcp.NewToolResultText("deleted: " + block), nil
}

func (s *Server) refineBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	block, err := req.RequireString("block")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sel, err := sess.RefineBlock(ctx, block, models.RefineMode(mode))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sel.Text), nil
}

func (s *Server) suggestTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	titles, err := sess.SuggestTitles(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) setMetadata(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, res := s.session(req)
	if res != nil {
		return res, nil
	}
	if title := optString(req, "title"); title != "" {
		sess.SelectTitle(title)
	}
	if topic := optString(req, "topic"); topic != "" {
		if err := sess.SetTopic(topic); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	for _, tag := range strings.Split(optString(req, "tags"), ",") {
		sess.AddTag(tag)
	}
	v := sess.View()
	out, _ := json.Marshal(map[string]any{"title": v.Title, "topic": v.Topic, "tags": v.Tags})
	return mcp.NewToolResultText(string(out)), nil
}
