package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Schemas mirror the request structs in handlers.go.

var addToolDef = mcp.NewTool("clip_add",
	mcp.WithDescription("Add a new clipboard item to the history."),
	mcp.WithString("kind",
		mcp.Description("Payload type: text, image, file, color, rtf, other. Defaults to text."),
	),
	mcp.WithString("content",
		mcp.Description("Textual content of the item."),
	),
	mcp.WithString("data_base64",
		mcp.Description("Binary payload, base64 encoded."),
	),
	mcp.WithString("source_app",
		mcp.Description("Identifier of the application the content was copied from."),
	),
	mcp.WithArray("tags",
		mcp.Description("Tags to attach to the item."),
		mcp.Items(map[string]any{"type": "string"}),
	),
	mcp.WithBoolean("sensitive",
		mcp.Description("Mark the item as sensitive."),
	),
)

var listToolDef = mcp.NewTool("clip_list",
	mcp.WithDescription("List clipboard history, newest first."),
	mcp.WithBoolean("favorites",
		mcp.Description("List only favorites, ordered by most recently favorited."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of items to return. 0 returns all."),
	),
	mcp.WithNumber("offset",
		mcp.Description("Number of items to skip."),
	),
)

var getToolDef = mcp.NewTool("clip_get",
	mcp.WithDescription("Fetch a single clipboard item by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Item identifier."),
	),
)

var searchToolDef = mcp.NewTool("clip_search",
	mcp.WithDescription("Search clipboard history by content, summary, or tags."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Substring to search for."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of matches to return. Defaults to 20."),
	),
)

var favoriteToolDef = mcp.NewTool("clip_favorite",
	mcp.WithDescription("Toggle the favorite flag on a clipboard item."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Item identifier."),
	),
)

var updateTagsToolDef = mcp.NewTool("clip_update_tags",
	mcp.WithDescription("Replace the tag list of a clipboard item."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Item identifier."),
	),
	mcp.WithArray("tags",
		mcp.Required(),
		mcp.Description("New tag list, replacing the current one."),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var deleteToolDef = mcp.NewTool("clip_delete",
	mcp.WithDescription("Delete clipboard items by id."),
	mcp.WithArray("ids",
		mcp.Required(),
		mcp.Description("Identifiers of the items to delete."),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var clearToolDef = mcp.NewTool("clip_clear",
	mcp.WithDescription("Delete the entire clipboard history."),
)
