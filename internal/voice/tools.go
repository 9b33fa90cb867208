package voice

import (
	"encoding/json"

	"github.com/sahoobinod1994-beep/PharmaCals/internal/calcstate"
	"github.com/sahoobinod1994-beep/PharmaCals/internal/pricing"
)

const systemInstruction = "You are a voice assistant for a pharmaceutical MRP revision " +
	"calculator. The user enters a price and chooses whether it is the original MRP or the " +
	"already-reduced MRP. When the user states an amount, call updateAmount. When the user " +
	"asks to interpret the amount as the original or the new price, call switchMode. Answer " +
	"briefly and in plain language."

// toolDeclarations describes the callable surface exposed to the live agent.
func toolDeclarations() []Tool {
	return []Tool{{
		FunctionDeclarations: []FunctionDeclaration{
			{
				Name:        "updateAmount",
				Description: "Set the calculator input amount in rupees.",
				Parameters: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"amount": {Type: "number", Description: "The price amount to calculate with."},
					},
					Required: []string{"amount"},
				},
			},
			{
				Name:        "switchMode",
				Description: "Choose whether the entered amount is the original MRP or the new reduced MRP.",
				Parameters: &Schema{
					Type: "object",
					Properties: map[string]*Schema{
						"mode": {Type: "string", Enum: []string{"original", "new"}},
					},
					Required: []string{"mode"},
				},
			},
		},
	}}
}

type updateAmountArgs struct {
	Amount *float64 `json:"amount"`
}

type switchModeArgs struct {
	Mode string `json:"mode"`
}

// dispatchToolCall applies one function call to the shared state. Argument
// shape is validated before any mutation; a mismatch is a no-op, but every
// call gets a response so the remote conversation never stalls.
func dispatchToolCall(state *calcstate.State, call FunctionCall) FunctionResponse {
	resp := FunctionResponse{
		ID:       call.ID,
		Name:     call.Name,
		Response: map[string]any{"result": "ok"},
	}

	switch call.Name {
	case "updateAmount":
		var args updateAmountArgs
		if err := json.Unmarshal(call.Args, &args); err != nil || args.Amount == nil {
			resp.Response = map[string]any{"result": "ignored"}
			return resp
		}
		if err := state.SetAmount(*args.Amount); err != nil {
			resp.Response = map[string]any{"result": "ignored"}
		}

	case "switchMode":
		var args switchModeArgs
		if err := json.Unmarshal(call.Args, &args); err != nil {
			resp.Response = map[string]any{"result": "ignored"}
			return resp
		}
		mode := pricing.Mode(args.Mode)
		if !mode.Valid() {
			resp.Response = map[string]any{"result": "ignored"}
			return resp
		}
		if err := state.SetMode(mode); err != nil {
			resp.Response = map[string]any{"result": "ignored"}
		}

	default:
		resp.Response = map[string]any{"result": "ignored"}
	}
	return resp
}
