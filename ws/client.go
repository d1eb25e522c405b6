package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'tan frame veya pong beklenen maksimum süre.
	// Bu sürede hiçbir şey gelmezse bağlantı kopmuş sayılır.
	pongWait = 90 * time.Second

	// pingPeriod: Server'ın ping gönderme aralığı. pongWait'ten kısa olmalı.
	pingPeriod = 30 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum mesaj boyutu (byte).
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	// Buffer doluysa (client yavaş) o mesaj sadece bu client için düşer.
	sendBufferSize = 256
)

// Transport, Hub'ın bir bağlantıya yazmak için kullandığı arayüz.
//
// Client bu arayüzü karşılar; service testleri bellek içi bir sahte
// transport kullanır.
type Transport interface {
	// Enqueue, mesajı gönderim kuyruğuna ekler. Kuyruk dolu veya bağlantı
	// kapalıysa bloklamadan false döner.
	Enqueue(data []byte) bool
	// Close, bağlantıyı kapatır. Birden fazla çağrı güvenlidir.
	Close()
}

// Sink, ReadPump'ın çözülmüş mesajları ve bağlantı yaşam döngüsünü teslim
// ettiği hedef. services.SyncService bu arayüzü karşılar.
//
// Transport parametresi, aynı kullanıcı için yenilenen bir bağlantının eski
// transport'undan gelen olayları ayırt etmek için taşınır.
type Sink interface {
	Connect(userID string, t Transport)
	Receive(userID string, t Transport, cmd Command)
	Disconnect(userID string, t Transport)
}

// Client, tek bir WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
//   - ReadPump: Client'dan gelen mesajları okur → çözer → Sink'e iletir
//   - WritePump: send kuyruğundaki mesajları ve ping'leri WS'e yazar
//
// gorilla/websocket aynı anda sadece bir okuyucu ve bir yazıcı destekler;
// iki goroutine bu kuralı korur.
type Client struct {
	conn   *websocket.Conn
	userID string
	sink   Sink
	log    *zap.SugaredLogger

	// send, client'a gönderilecek mesajların buffer'landığı channel.
	// closed true olduktan sonra send'e yazılmaz.
	send    chan []byte
	sendMu  sync.Mutex
	closed  bool
	writeMu sync.Mutex // conn yazma çağrılarını korur
}

// NewClient, bir WebSocket bağlantısı için Client oluşturur.
func NewClient(conn *websocket.Conn, userID string, sink Sink, log *zap.SugaredLogger) *Client {
	return &Client{
		conn:   conn,
		userID: userID,
		sink:   sink,
		log:    log,
		send:   make(chan []byte, sendBufferSize),
	}
}

// Enqueue, Transport arayüzünü karşılar.
func (c *Client) Enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close, send channel'ını kapatır. WritePump bunu görünce close frame
// yazıp bağlantıyı kapatır; bu da ReadPump'ı sonlandırır.
func (c *Client) Close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump, WebSocket bağlantısından gelen mesajları okur ve Sink'e iletir.
//
// Bağlantı kapanana kadar bloklar. Mesajlar okunma sırasıyla, senkron olarak
// teslim edilir; böylece tek bir bağlantının mesaj sırası korunur.
// Çıkışta Disconnect her koşulda çağrılır.
func (c *Client) ReadPump() {
	defer func() {
		c.sink.Disconnect(c.userID, c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	// Her gelen frame veya pong read deadline'ı yeniler.
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.Warnw("failed to set read deadline", "user", c.userID, "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Infow("unexpected close", "user", c.userID, "error", err)
			}
			return
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.log.Warnw("failed to set read deadline", "user", c.userID, "error", err)
			return
		}

		cmd, err := DecodeCommand(raw)
		if err != nil {
			c.log.Debugw("message dropped", "user", c.userID, "error", err)
			continue
		}

		c.sink.Receive(c.userID, c, cmd)
	}
}

// WritePump, send kuyruğundaki mesajları WebSocket bağlantısına yazar ve
// pingPeriod aralığıyla ping gönderir.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Channel kapatıldı: Hub client'ı çıkardı veya bağlantı yenilendi
				_ = c.writeMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.writeMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeMessage, WebSocket'e mesaj yazar (mutex ile korunur).
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
