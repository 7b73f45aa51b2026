// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes NeuralNotes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/neuralnotes/internal/apperr"
	"github.com/starford/neuralnotes/internal/importer"
	"github.com/starford/neuralnotes/internal/models"
	"github.com/starford/neuralnotes/internal/noteservice"
	"github.com/starford/neuralnotes/internal/store"
	"github.com/starford/neuralnotes/internal/wikilink"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "neuralnotes://note-format"

// Service is the subset of the note service the tools call.
type Service interface {
	ListVaults(ctx context.Context) ([]models.Vault, error)
	ListNotes(ctx context.Context, vaultID string) ([]models.Note, error)
	GetNote(ctx context.Context, vaultID, noteID string) (*noteservice.NoteDetail, error)
	CreateNote(ctx context.Context, vaultID string, in noteservice.CreateNoteInput) (*models.Note, error)
	Backlinks(ctx context.Context, vaultID, noteID string) ([]string, error)
	Search(ctx context.Context, vaultID, query string, limit int) ([]store.SearchResult, error)
	Resolve(ctx context.Context, vaultID, noteID, content string) (wikilink.Resolution, error)
	ImportNotes(ctx context.Context, vaultID string, files []importer.File) (*importer.Result, error)
}

// Server wraps the MCP server with NeuralNotes tools.
type Server struct {
	mcp *server.MCPServer
	svc Service
}

// New creates a new MCP server with all NeuralNotes tools registered.
func New(svc Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"NeuralNotes",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_vaults",
		mcp.WithDescription("List all vaults with their ids and names."),
	), s.listVaults)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the notes of a vault as id and title pairs."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its content, links and backlinks."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Note ID")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. [[wikilinks]] in the content are resolved "+
			"against the vault's titles and stored as links. Read the contract first via "+
			"the get_note_contract tool or the "+NoteFormatURI+" resource."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title, unique within the vault")),
		mcp.WithString("content", mcp.Description("Note content following the note format contract")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("resolve_links",
		mcp.WithDescription("Preview which [[wikilinks]] in a text resolve to notes of a vault. "+
			"Reports resolved ids, unresolved targets and ambiguous basenames. Writes nothing."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Text containing wikilinks")),
		mcp.WithString("note_id", mcp.Description("Optional id of the note the text belongs to")),
	), s.resolveLinks)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
		mcp.WithString("note_id", mcp.Required(), mcp.Description("Note ID")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles and content of one vault."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the NeuralNotes note format and link resolution rules. "+
			"Call this before creating notes."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("import_markdown",
		mcp.WithDescription("Fetch a Markdown file from an http(s) URL or a base64 data URI "+
			"and import it as a note. Its wikilinks are resolved like a regular import."),
		mcp.WithString("vault_id", mcp.Required(), mcp.Description("Vault ID")),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:text/markdown;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional file name; the note title is derived from it")),
	), s.importMarkdown)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("How note text is interpreted and how wikilinks resolve."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio serves on stdin/stdout until ctx is cancelled or stdin closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// toolError renders err for the model. Not-found errors get a short message.
func toolError(err error, what string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found: " + what)
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listVaults(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaults, err := s.svc.ListVaults(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(vaults) == 0 {
		return mcp.NewToolResultText("no vaults"), nil
	}
	lines := make([]string, len(vaults))
	for i, v := range vaults {
		lines[i] = v.ID + "\t" + v.Name
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.svc.ListNotes(ctx, vaultID)
	if err != nil {
		return toolError(err, "vault "+vaultID), nil
	}
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = n.ID + "\t" + n.Title
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	noteID, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, vaultID, noteID)
	if err != nil {
		return toolError(err, noteID), nil
	}
	return jsonResult(note), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")

	note, err := s.svc.CreateNote(ctx, vaultID, noteservice.CreateNoteInput{
		Title:        title,
		Content:      content,
		ResolveLinks: true,
	})
	if err != nil {
		return toolError(err, "vault "+vaultID), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d links)", note.ID, len(note.Links))), nil
}

func (s *Server) resolveLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, vaultID, req.GetString("note_id", ""), content)
	if err != nil {
		return toolError(err, "vault "+vaultID), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	noteID, err := req.RequireString("note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, vaultID, noteID)
	if err != nil {
		return toolError(err, noteID), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	vaultID, err := req.RequireString("vault_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, vaultID, query, 20)
	if err != nil {
		return toolError(err, "vault "+vaultID), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
