package orgvclient

import (
	"context"
	"net/http"
	"net/url"
	"testing"
)

func TestActiveDevicesDecodesFlatMap(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathActiveDevices, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{
			"current_device_id": "dev-1",
			"dev-1":             "Linux console, last seen today",
			"dev-2":             "Kiosk, last seen yesterday",
		})
	})
	client, _ := newTestClient(t, g)

	devices, err := client.ActiveDevices(context.Background())
	if err != nil {
		t.Fatalf("ActiveDevices failed: %v", err)
	}
	if devices.CurrentDeviceID != "dev-1" {
		t.Fatalf("current device = %q, want dev-1", devices.CurrentDeviceID)
	}
	if len(devices.Devices) != 2 {
		t.Fatalf("devices = %v, want 2 entries", devices.Devices)
	}
	if devices.Devices["dev-2"] != "Kiosk, last seen yesterday" {
		t.Fatalf("dev-2 = %q", devices.Devices["dev-2"])
	}
	if _, ok := devices.Devices["current_device_id"]; ok {
		t.Fatal("current_device_id leaked into the device map")
	}
}

func TestLogoutFromDevicesSendsBareArray(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathLogoutFromDevices, func(w http.ResponseWriter, r *http.Request) {
		ids := decodeBody[[]string](t, r)
		if len(ids) != 2 || ids[0] != "dev-2" || ids[1] != "dev-3" {
			t.Errorf("ids = %v, want [dev-2 dev-3]", ids)
		}
		writeJSON(w, MessageResponse{Message: "Logged out from devices"})
	})
	client, _ := newTestClient(t, g)

	if err := client.LogoutFromDevices(context.Background(), []string{"dev-2", "dev-3"}); err != nil {
		t.Fatalf("LogoutFromDevices failed: %v", err)
	}
}

func TestAdminBulkQueryFlags(t *testing.T) {
	var gotDeleteUsers, gotDeleteRoles, gotCreateUsers url.Values

	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathDeleteUsers, func(w http.ResponseWriter, r *http.Request) {
		gotDeleteUsers = r.URL.Query()
		writeJSON(w, DeleteUsersResponse{Message: "Users deleted"})
	})
	g.handle(pathDeleteRoles, func(w http.ResponseWriter, r *http.Request) {
		gotDeleteRoles = r.URL.Query()
		writeJSON(w, DeleteRolesResponse{Message: "Roles deleted"})
	})
	g.handle(pathCreateUsers, func(w http.ResponseWriter, r *http.Request) {
		gotCreateUsers = r.URL.Query()
		users := decodeBody[[]CreateUserRequest](t, r)
		if len(users) != 1 || users[0].Username != "bob" {
			t.Errorf("users = %+v", users)
		}
		writeJSON(w, CreateUsersResponse{Message: "Users created"})
	})
	client, _ := newTestClient(t, g)
	ctx := context.Background()

	if _, err := client.DeleteUsers(ctx, []string{"bob"}, true, false); err != nil {
		t.Fatalf("DeleteUsers failed: %v", err)
	}
	if gotDeleteUsers.Get("hard") != "enable" || gotDeleteUsers.Get("leniency") != "disable" {
		t.Fatalf("delete-users query = %v", gotDeleteUsers)
	}

	if _, err := client.DeleteRoles(ctx, []string{"ROLE_TEMP"}, false, true); err != nil {
		t.Fatalf("DeleteRoles failed: %v", err)
	}
	if gotDeleteRoles.Get("force") != "disable" || gotDeleteRoles.Get("leniency") != "enable" {
		t.Fatalf("delete-roles query = %v", gotDeleteRoles)
	}

	req := CreateUserRequest{}
	req.Username = "bob"
	req.Email = "bob@orgv.test"
	if _, err := client.CreateUsers(ctx, []CreateUserRequest{req}, true); err != nil {
		t.Fatalf("CreateUsers failed: %v", err)
	}
	if gotCreateUsers.Get("leniency") != "enable" {
		t.Fatalf("create-users query = %v", gotCreateUsers)
	}
}

func TestReadUsersDecodesPartialResults(t *testing.T) {
	g := newGateway()
	g.setAuthenticated(true)
	g.handle(pathReadUsers, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"message":                        "Some users could not be returned",
			"found_users":                    []map[string]any{{"username": "alice"}},
			"users_not_found_with_usernames": []string{"ghost"},
		})
	})
	client, _ := newTestClient(t, g)

	resp, err := client.ReadUsers(context.Background(), []string{"alice", "ghost"}, true)
	if err != nil {
		t.Fatalf("ReadUsers failed: %v", err)
	}
	if len(resp.FoundUsers) != 1 || resp.FoundUsers[0].Username != "alice" {
		t.Fatalf("found users = %+v", resp.FoundUsers)
	}
	if len(resp.NotFoundUsernames) != 1 || resp.NotFoundUsernames[0] != "ghost" {
		t.Fatalf("not-found usernames = %v", resp.NotFoundUsernames)
	}
}

func TestMethodSelectionUsesQueryParameter(t *testing.T) {
	g := newGateway()
	g.handle(pathForgotPasswordMethodSelection, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("method"); got != MethodEmailMFA {
			t.Errorf("method query = %q, want %s", got, MethodEmailMFA)
		}
		body := decodeBody[map[string]string](t, r)
		if body["usernameOrEmailOrId"] != "alice" {
			t.Errorf("identifier body = %v", body)
		}
		writeJSON(w, MessageResponse{Message: "OTP sent"})
	})
	client, _ := newTestClient(t, g)

	if _, err := client.ForgotPasswordMethodSelection(context.Background(), "alice", MethodEmailMFA); err != nil {
		t.Fatalf("ForgotPasswordMethodSelection failed: %v", err)
	}
}
